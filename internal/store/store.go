// Package store keeps an ordered task list in sync with its JSON file.
//
// Every mutating call rewrites the whole file before returning. Index
// arguments are zero-based positions in load/insertion order; an index out
// of range makes Delete and Complete a silent no-op.
//
// A Store is not safe for concurrent use, and nothing guards against two
// processes sharing one file.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskmgr-go/internal/task"
)

var (
	// ErrCorruptStore is returned by Load when the task file exists but is
	// not a valid task list.
	ErrCorruptStore = errors.New("corrupt task file")
	// ErrPersistence is returned when the task file cannot be written. The
	// in-memory change that triggered the save is kept.
	ErrPersistence = errors.New("save task file")
)

// CorruptPolicy selects what Load does with an unreadable task file.
type CorruptPolicy string

const (
	// CorruptFail makes Load return ErrCorruptStore.
	CorruptFail CorruptPolicy = "fail"
	// CorruptEmpty makes Load log a warning and start with no tasks. The
	// file is left alone until the next save replaces it.
	CorruptEmpty CorruptPolicy = "empty"
)

// Stats summarizes the task list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Store owns the task list and its file.
type Store struct {
	path      string
	tasks     []task.Task
	logger    *log.Logger
	onCorrupt CorruptPolicy
	strict    bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for load/save diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCorruptPolicy sets how Load treats an invalid file.
func WithCorruptPolicy(p CorruptPolicy) Option {
	return func(s *Store) {
		s.onCorrupt = p
	}
}

// WithStrict enables the priority range check on load. Out-of-range
// priorities are then handled like any other corruption.
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// New returns an empty store bound to path. It does not touch the file.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		logger:    log.New(io.Discard),
		onCorrupt: CorruptFail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a store bound to path, loaded from the file if it exists.
func Open(path string, opts ...Option) (*Store, error) {
	s := New(path, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the task file path.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory list with the file contents. A missing file
// yields an empty list.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.tasks = nil
			s.logger.Debug("no task file, starting empty", "path", s.path)
			return nil
		}
		return fmt.Errorf("read task file: %w", err)
	}

	tasks, err := task.DecodeList(data)
	if err == nil && s.strict {
		err = task.ValidatePriorities(tasks)
	}
	if err != nil {
		if s.onCorrupt == CorruptEmpty {
			s.logger.Warn("ignoring unreadable task file", "path", s.path, "err", err)
			s.tasks = nil
			return nil
		}
		return fmt.Errorf("%w %s: %w", ErrCorruptStore, s.path, err)
	}

	s.tasks = tasks
	s.logger.Debug("loaded tasks", "path", s.path, "count", len(tasks))
	return nil
}

// Save replaces the file with the current list.
func (s *Store) Save() error {
	data, err := task.EncodeList(s.tasks)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.logger.Debug("saved tasks", "path", s.path, "count", len(s.tasks))
	return nil
}

// Add appends t and saves.
func (s *Store) Add(t task.Task) error {
	s.tasks = append(s.tasks, t)
	return s.Save()
}

// Delete removes the task at index and saves. Later tasks move down one
// position. It reports false, and writes nothing, when index is out of range.
func (s *Store) Delete(index int) (bool, error) {
	if !s.inRange(index) {
		return false, nil
	}
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)
	return true, s.Save()
}

// Complete marks the task at index completed and saves. It reports false,
// and writes nothing, when index is out of range.
func (s *Store) Complete(index int) (bool, error) {
	if !s.inRange(index) {
		return false, nil
	}
	s.tasks[index].MarkCompleted()
	return true, s.Save()
}

// List returns a copy of the tasks in order. The result is empty, not nil,
// when there are no tasks.
func (s *Store) List() []task.Task {
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Stats counts total, completed and pending tasks.
func (s *Store) Stats() Stats {
	st := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

func (s *Store) inRange(index int) bool {
	return index >= 0 && index < len(s.tasks)
}
