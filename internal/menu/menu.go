// Package menu implements the numbered, prompt-driven front end.
//
// The dispatcher validates what the store leaves to its caller: priorities
// are re-prompted until they parse as an integer in range, and task numbers
// must parse as integers. Task numbers out of range are passed through; the
// store ignores them.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskmgr-go/internal/store"
	"github.com/nibzard/taskmgr-go/internal/task"
)

// Menu choices.
const (
	choiceAdd      = "1"
	choiceList     = "2"
	choiceComplete = "3"
	choiceDelete   = "4"
	choiceStats    = "5"
	choiceExit     = "6"
)

var (
	// errQuit signals end of input.
	errQuit  = errors.New("quit")
	errInput = errors.New("read input")
)

// Dispatcher runs the interactive menu loop against a store.
type Dispatcher struct {
	store  *store.Store
	in     *bufio.Reader
	out    io.Writer
	logger *log.Logger

	readOnce sync.Once
	lines    chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failed operations.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a dispatcher reading commands from in and writing to out.
func New(st *store.Store, in io.Reader, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  st,
		in:     bufio.NewReader(in),
		lines:  make(chan lineResult),
		out:    out,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run shows the menu and handles choices until Exit, end of input, or ctx
// is cancelled. Cancellation interrupts a pending prompt. Failed store
// operations are reported and the loop goes on.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.readOnce.Do(d.startReader)

	for {
		writeMenu(d.out)
		choice, err := d.prompt(ctx, "Choose an option: ")
		if err != nil {
			return d.finish(err)
		}

		switch choice {
		case choiceAdd:
			err = d.add(ctx)
		case choiceList:
			WriteTasks(d.out, d.store.List())
		case choiceComplete:
			err = d.complete(ctx)
		case choiceDelete:
			err = d.delete(ctx)
		case choiceStats:
			WriteStats(d.out, d.store.Stats())
		case choiceExit:
			fmt.Fprintln(d.out, "Goodbye 👋")
			return nil
		default:
			fmt.Fprintln(d.out, "Invalid option. Please try again.")
		}

		if errors.Is(err, errQuit) || errors.Is(err, errInput) {
			return d.finish(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			d.logger.Error("operation failed", "choice", choice, "err", err)
			fmt.Fprintf(d.out, "Error: %v\n", err)
		}
	}
}

func (d *Dispatcher) finish(err error) error {
	if errors.Is(err, errQuit) {
		fmt.Fprintln(d.out)
		return nil
	}
	return err
}

func (d *Dispatcher) add(ctx context.Context) error {
	title, err := d.prompt(ctx, "Task Title: ")
	if err != nil {
		return err
	}
	description, err := d.prompt(ctx, "Task Description: ")
	if err != nil {
		return err
	}
	priority, err := d.promptPriority(ctx)
	if err != nil {
		return err
	}

	t, err := task.New(title, description, priority)
	if err != nil {
		return err
	}
	if err := d.store.Add(t); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "Task added successfully.")
	return nil
}

func (d *Dispatcher) complete(ctx context.Context) error {
	WriteTasks(d.out, d.store.List())
	index, ok, err := d.promptIndex(ctx, "Enter task number to mark completed: ")
	if err != nil || !ok {
		return err
	}
	changed, err := d.store.Complete(index)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(d.out, "No task with that number.")
		return nil
	}
	fmt.Fprintln(d.out, "Task marked as completed.")
	return nil
}

func (d *Dispatcher) delete(ctx context.Context) error {
	WriteTasks(d.out, d.store.List())
	index, ok, err := d.promptIndex(ctx, "Enter task number to delete: ")
	if err != nil || !ok {
		return err
	}
	changed, err := d.store.Delete(index)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(d.out, "No task with that number.")
		return nil
	}
	fmt.Fprintln(d.out, "Task deleted.")
	return nil
}

// promptPriority asks until it gets an integer in the accepted range.
func (d *Dispatcher) promptPriority(ctx context.Context) (int, error) {
	for {
		line, err := d.prompt(ctx, fmt.Sprintf("Enter priority (%d–%d): ", task.MinPriority, task.MaxPriority))
		if err != nil {
			return 0, err
		}
		p, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(d.out, "Please enter a valid number.")
			continue
		}
		if task.CheckPriority(p) != nil {
			fmt.Fprintf(d.out, "Priority must be between %d and %d.\n", task.MinPriority, task.MaxPriority)
			continue
		}
		return p, nil
	}
}

// promptIndex reads a 1-based task number and returns its zero-based index.
// ok is false when the input is not an integer.
func (d *Dispatcher) promptIndex(ctx context.Context, label string) (int, bool, error) {
	line, err := d.prompt(ctx, label)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintln(d.out, "Invalid input.")
		return 0, false, nil
	}
	return n - 1, true, nil
}

// prompt writes label and returns the next input line, trimmed. It returns
// ctx.Err() if ctx is cancelled first.
func (d *Dispatcher) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(d.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-d.lines:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !ok || errors.Is(r.err, io.EOF) {
			return "", errQuit
		}
		if r.err != nil {
			return "", fmt.Errorf("%w: %w", errInput, r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}

// startReader feeds input lines to d.lines until the input ends. Lines have
// no length limit. The goroutine outlives Run when input is still pending;
// a later Run picks up where it left off.
func (d *Dispatcher) startReader() {
	go func() {
		defer close(d.lines)
		for {
			line, err := d.in.ReadString('\n')
			if line != "" {
				d.lines <- lineResult{line: line}
			}
			if err != nil {
				d.lines <- lineResult{err: err}
				return
			}
		}
	}()
}
