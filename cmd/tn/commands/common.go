package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tn/internal/config"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// Global carries process-wide values resolved once in main.
type Global struct {
	// DefaultStorageDir applies when neither the flag nor the config sets one.
	DefaultStorageDir string
	Stdout            io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config     string           `short:"c" help:"Configuration file path" default:"tn.yaml" type:"path"`
	StorageDir string           `name:"storage-dir" help:"Directory for compiled pages and state (default ~/.tn)" env:"TN_STORAGE_DIR"`
	Verbose    bool             `short:"v" help:"Enable verbose logging"`
	Version    kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compile every note once"`
	Serve   ServeCmd   `cmd:"" help:"Compile, serve and recompile notes as they change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Crawl   CrawlCmd   `cmd:"" help:"List the notes that would be compiled"`
	History HistoryCmd `cmd:"" help:"Show generation history from the journal"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(c.Verbose, config.LogFormatText)
	return nil
}

func setupLogging(verbose bool, format config.LogFormat) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the configuration, settles the storage directory and
// switches the log format when the file asks for it.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.UseStorageDir(root.StorageDir, g.DefaultStorageDir); err != nil {
		return nil, err
	}
	if cfg.LogFormat != config.LogFormatText {
		setupLogging(root.Verbose, cfg.LogFormat)
	}
	slog.Debug("Loaded configuration", logfields.Path(cfg.Path()), logfields.Project(cfg.Name))
	return cfg, nil
}

func stdout(g *Global) io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}
