package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

// Validate checks a defaulted configuration.
func Validate(c *Config) error {
	if strings.TrimSpace(c.Name) == "" {
		return terrors.ValidationFailed("name", "project name is required")
	}
	if c.Name == "." || c.Name == ".." || strings.ContainsAny(c.Name, `/\`) {
		return terrors.ValidationFailed("name", fmt.Sprintf("%q must be a single path segment", c.Name))
	}
	if c.Src == "" {
		return terrors.ValidationFailed("src", "source directory is required")
	}
	st, err := os.Stat(c.Src)
	if err != nil {
		return terrors.ValidationFailed("src", err.Error())
	}
	if !st.IsDir() {
		return terrors.ValidationFailed("src", fmt.Sprintf("%s is not a directory", c.Src))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return terrors.ValidationFailed("server.port", fmt.Sprintf("%d is out of range", c.Server.Port))
	}
	if c.Daemon.QueueSize < 1 {
		return terrors.ValidationFailed("daemon.queue_size", "must be greater than zero")
	}
	if c.Daemon.Debounce < 0 || c.Daemon.RescanInterval < 0 {
		return terrors.ValidationFailed("daemon", "durations must not be negative")
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return terrors.ValidationFailed("log_format", fmt.Sprintf("unsupported format %q", c.LogFormat))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return terrors.ValidationFailed("metrics.path", "must start with /")
	}
	if c.Journal.Path != "" && !filepath.IsAbs(c.Journal.Path) {
		return terrors.ValidationFailed("journal.path", "must resolve to an absolute path")
	}
	return nil
}
