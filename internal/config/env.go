package config

import (
	"os"
	"strings"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKMGR_FILE"); v != "" {
		cfg.TaskFile = v
	}
	if v := os.Getenv("TASKMGR_ON_CORRUPT"); v != "" {
		cfg.OnCorrupt = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TASKMGR_STRICT"); v != "" {
		cfg.Strict = boolFromString(v)
	}

	// Logging configuration
	if v := os.Getenv("TASKMGR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKMGR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKMGR_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
	}
	if v := os.Getenv("TASKMGR_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
	}
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
