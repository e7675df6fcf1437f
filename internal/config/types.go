package config

import (
	"fmt"

	"github.com/nibzard/taskmgr-go/internal/logging"
	"github.com/nibzard/taskmgr-go/internal/store"
)

// Default values.
const (
	DefaultTaskFile  = "tasks.json"
	DefaultOnCorrupt = string(store.CorruptFail)
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for taskmgr.
type Config struct {
	// TaskFile is the JSON file holding the task list.
	TaskFile string `toml:"task_file"`

	// OnCorrupt selects startup behavior for an unreadable task file:
	// "fail" aborts, "empty" starts with no tasks.
	OnCorrupt string `toml:"on_corrupt"`

	// Strict rejects stored priorities outside 1..5 on load.
	Strict bool `toml:"strict"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Files that contributed to this config (computed)
	Files []string `toml:"-"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.TaskFile = DefaultTaskFile
	cfg.OnCorrupt = DefaultOnCorrupt
	cfg.Strict = false
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if c.TaskFile == "" {
		return fmt.Errorf("task_file must not be empty")
	}
	switch store.CorruptPolicy(c.OnCorrupt) {
	case store.CorruptFail, store.CorruptEmpty:
	default:
		return fmt.Errorf("invalid on_corrupt %q, must be one of: fail, empty", c.OnCorrupt)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error, fatal", c.LogLevel)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("invalid log_format %q, must be one of: text, json, logfmt", c.LogFormat)
	}
	return nil
}

// CorruptPolicy returns OnCorrupt as a store policy.
func (c *Config) CorruptPolicy() store.CorruptPolicy {
	return store.CorruptPolicy(c.OnCorrupt)
}

// StoreOptions returns the store options implied by the config.
func (c *Config) StoreOptions() []store.Option {
	return []store.Option{
		store.WithCorruptPolicy(c.CorruptPolicy()),
		store.WithStrict(c.Strict),
	}
}
