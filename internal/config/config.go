// Package config loads the project configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

// DefaultFile is the configuration file name looked up by the CLI.
const DefaultFile = "tn.yaml"

// Config is the project configuration.
type Config struct {
	// Name is the project name: page title and output subdirectory.
	Name string `yaml:"name"`
	// Src is the markdown source root.
	Src string `yaml:"src"`
	// Assets is served under /assets/. Defaults to <storage_dir>/assets.
	Assets     string        `yaml:"assets,omitempty"`
	StorageDir string        `yaml:"storage_dir,omitempty"`
	LogFormat  LogFormat     `yaml:"log_format,omitempty"`
	Server     ServerConfig  `yaml:"server"`
	Daemon     DaemonConfig  `yaml:"daemon"`
	Metrics    MetricsConfig `yaml:"metrics"`
	Journal    JournalConfig `yaml:"journal"`
	NATS       NATSConfig    `yaml:"nats"`

	// path of the file this config was loaded from.
	path string
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	LiveReload *bool  `yaml:"live_reload,omitempty"`
}

type DaemonConfig struct {
	QueueSize int           `yaml:"queue_size"`
	Debounce  time.Duration `yaml:"debounce"`
	// RescanInterval enables a periodic full rescan when positive.
	RescanInterval time.Duration `yaml:"rescan_interval"`
	// ContinueAfterNavigation keeps evaluating a batch after a navigation
	// change triggered a full rebuild.
	ContinueAfterNavigation bool `yaml:"continue_after_navigation"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type JournalConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path defaults to <storage_dir>/journal.db.
	Path string `yaml:"path"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load reads, expands, defaults and validates the configuration at path.
// Relative source and asset paths resolve against the directory of the file.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, terrors.ConfigNotFound(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, terrors.ConfigInvalid(path, fmt.Errorf("failed to read config file: %w", err))
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, terrors.ConfigInvalid(path, fmt.Errorf("failed to unmarshal config: %w", err))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, terrors.ConfigInvalid(path, err)
	}
	cfg.path = abs
	if err := cfg.resolvePaths(filepath.Dir(abs)); err != nil {
		return nil, terrors.ConfigInvalid(path, err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the absolute path of the loaded file, if any.
func (c *Config) Path() string { return c.path }

// LiveReloadEnabled reports whether pages subscribe to live reload.
func (c *Config) LiveReloadEnabled() bool {
	return c.Server.LiveReload == nil || *c.Server.LiveReload
}

// UseStorageDir settles the storage directory: override wins over the
// configured value, which wins over fallback.
func (c *Config) UseStorageDir(override, fallback string) error {
	dir := c.StorageDir
	switch {
	case override != "":
		dir = override
	case dir == "":
		dir = fallback
	}
	if dir == "" {
		return terrors.ValidationFailed("storage_dir", "no storage directory configured")
	}
	expanded, err := expandHome(dir)
	if err != nil {
		return terrors.ConfigInvalid(c.path, err)
	}
	c.StorageDir, err = filepath.Abs(expanded)
	if err != nil {
		return terrors.ConfigInvalid(c.path, err)
	}
	return nil
}

// OutputRoot is where compiled pages of this project are written.
func (c *Config) OutputRoot() string {
	return filepath.Join(c.StorageDir, "cache", c.Name)
}

// AssetsDir is the static asset directory.
func (c *Config) AssetsDir() string {
	if c.Assets != "" {
		return c.Assets
	}
	return filepath.Join(c.StorageDir, "assets")
}

// JournalPath is the generation journal database.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.StorageDir, "journal.db")
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) resolvePaths(base string) error {
	for _, p := range []*string{&c.Src, &c.Assets, &c.StorageDir, &c.Journal.Path} {
		if *p == "" {
			continue
		}
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(base, expanded)
		}
		*p = filepath.Clean(expanded)
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
