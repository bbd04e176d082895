package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tn/cmd/tn/commands"
	terrors "git.home.luguber.info/inful/tn/internal/errors"
	"git.home.luguber.info/inful/tn/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{
		DefaultStorageDir: defaultStorageDir(),
		Stdout:            os.Stdout,
	}

	parser := kong.Parse(cli,
		kong.Name("tn"),
		kong.Description("Incremental markdown notes compiler"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := parser.Run(global, cli); err != nil {
		terrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

// defaultStorageDir is ~/.tn, or .tn in the working directory when the home
// directory is unknown.
func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tn"
	}
	return filepath.Join(home, ".tn")
}
