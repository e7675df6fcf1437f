// Package cmd implements the CLI command structure for taskmgr.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskmgr-go/internal/config"
	"github.com/nibzard/taskmgr-go/internal/export"
	"github.com/nibzard/taskmgr-go/internal/logging"
	"github.com/nibzard/taskmgr-go/internal/menu"
	"github.com/nibzard/taskmgr-go/internal/store"
	"github.com/nibzard/taskmgr-go/internal/task"
	"github.com/nibzard/taskmgr-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Standard streams, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the taskmgr CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskmgr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	logger := logging.NewFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	logger.Debug("config loaded", "task_file", cfg.TaskFile, "files", cfg.Files)

	// With no arguments, or only flags, fall back to the interactive menu.
	subcommand := "menu"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "menu":
		return menuCommand(ctx, cfg, logger, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, logger, remainingArgs)
	case "add":
		return addCommand(cfg, logger, remainingArgs)
	case "ls", "list":
		return lsCommand(cfg, logger, remainingArgs)
	case "done", "complete":
		return doneCommand(cfg, logger, remainingArgs)
	case "rm", "delete":
		return rmCommand(cfg, logger, remainingArgs)
	case "stats":
		return statsCommand(cfg, logger, remainingArgs)
	case "validate":
		return validateCommand(cfg, logger, remainingArgs)
	case "export":
		return exportCommand(cfg, logger, remainingArgs)
	case "config":
		return configCommand(cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore loads the configured task file.
func openStore(cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	opts := append(cfg.StoreOptions(), store.WithLogger(logger))
	st, err := store.Open(cfg.TaskFile, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading task file: %w", err)
	}
	return st, nil
}

// noArgs parses a flag set that accepts no positional arguments.
func noArgs(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

func menuCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	if err := noArgs(flag.NewFlagSet("taskmgr menu", flag.ContinueOnError), args); err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	return menu.New(st, stdin, stdout, menu.WithLogger(logger)).Run(ctx)
}

func tuiCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	if err := noArgs(flag.NewFlagSet("taskmgr tui", flag.ContinueOnError), args); err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	return ui.RunTUI(ctx, st)
}

func addCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmgr add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Task description")
	fs.StringVar(description, "d", "", "Task description (shorthand)")
	priority := fs.Int("priority", 0, "Priority (1-5)")
	fs.IntVar(priority, "p", 0, "Priority (1-5) (shorthand)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// A single positional argument is taken as the title.
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		if *title != "" {
			return fmt.Errorf("title given twice")
		}
		*title = remaining[0]
	}

	t, err := task.New(strings.TrimSpace(*title), strings.TrimSpace(*description), *priority)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if err := st.Add(t); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added task %d: %s\n", st.Len(), t.Title)
	return nil
}

func lsCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	if err := noArgs(flag.NewFlagSet("taskmgr ls", flag.ContinueOnError), args); err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	menu.WriteTasks(stdout, st.List())
	return nil
}

// parseTaskNumber parses a 1-based task number as shown by ls.
func parseTaskNumber(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one task number")
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid task number %q", args[0])
	}
	return n, nil
}

func doneCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	n, err := parseTaskNumber(args)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	ok, err := st.Complete(n - 1)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(stdout, "No task with that number.")
		return nil
	}
	fmt.Fprintln(stdout, "Task marked as completed.")
	return nil
}

func rmCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	n, err := parseTaskNumber(args)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	ok, err := st.Delete(n - 1)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(stdout, "No task with that number.")
		return nil
	}
	fmt.Fprintln(stdout, "Task deleted.")
	return nil
}

func statsCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmgr stats", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print statistics as JSON")
	if err := noArgs(fs, args); err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	stats := st.Stats()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	menu.WriteStats(stdout, stats)
	return nil
}

// validateCommand loads the task file strictly, regardless of the
// configured corruption policy.
func validateCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmgr validate", flag.ContinueOnError)
	if err := noArgs(fs, args); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.TaskFile); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stdout, "%s does not exist, nothing to validate\n", cfg.TaskFile)
		return nil
	}

	st, err := store.Open(cfg.TaskFile,
		store.WithLogger(logger),
		store.WithCorruptPolicy(store.CorruptFail),
		store.WithStrict(true),
	)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Fprintf(stdout, "%s: %d tasks, OK\n", cfg.TaskFile, st.Len())
	return nil
}

func exportCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("taskmgr export", flag.ContinueOnError)
	formatName := fs.String("format", string(export.FormatJSON), "Output format (json|yaml)")
	output := fs.String("o", "", "Write to file instead of stdout")
	if err := noArgs(fs, args); err != nil {
		return err
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	if *output == "" {
		return export.Write(stdout, st.List(), format)
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, st.List(), format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	logger.Info("exported tasks", "path", *output, "format", format, "count", st.Len())
	return nil
}

func configCommand(cfg *config.Config, args []string) error {
	if len(args) > 0 && args[0] == "init" {
		path := config.ConfigFileName
		if len(args) > 1 {
			path = args[1]
		}
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return nil
	}
	if len(args) > 0 {
		return fmt.Errorf("unknown config command: %s", args[0])
	}

	if len(cfg.Files) > 0 {
		fmt.Fprintf(stdout, "# Loaded from: %s\n", strings.Join(cfg.Files, ", "))
	}
	return config.Encode(stdout, cfg)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "taskmgr version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskmgr - a small persistent task list")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskmgr [global options] [command] [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  menu                  Interactive numbered menu (default)")
	fmt.Fprintln(w, "  tui                   Full-screen terminal interface")
	fmt.Fprintln(w, "  add [title]           Add a task (-title, -d/-description, -p/-priority)")
	fmt.Fprintln(w, "  ls                    List tasks")
	fmt.Fprintln(w, "  done <n>              Mark task n as completed")
	fmt.Fprintln(w, "  rm <n>                Delete task n")
	fmt.Fprintln(w, "  stats [-json]         Show task statistics")
	fmt.Fprintln(w, "  validate              Check the task file, including priorities")
	fmt.Fprintln(w, "  export [-format f]    Print tasks as json or yaml (-o file)")
	fmt.Fprintln(w, "  config [init [path]]  Show effective config or write an example file")
	fmt.Fprintln(w, "  version               Show version")
	fmt.Fprintln(w, "  help                  Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(stderr)
}
