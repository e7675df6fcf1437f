package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskmgr configuration file
# Values can be overridden by TASKMGR_* environment variables or CLI flags

# Task file (supports ~ and $VAR expansion)
task_file = "tasks.json"

# What to do when the task file cannot be read as a task list:
# "fail" stops with an error, "empty" starts with no tasks
on_corrupt = "fail"

# Reject stored priorities outside 1-5 when loading
strict = false

# Diagnostics (written to stderr)
log_level = "warn"       # debug, info, warn, error
log_format = "text"      # text, json, logfmt
log_timestamps = false
log_caller = false
`
}

// WriteExample writes ExampleConfig to path. It refuses to overwrite an
// existing file.
func WriteExample(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if _, err := io.WriteString(f, ExampleConfig()); err != nil {
		f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	return f.Close()
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
