package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tn/internal/daemon"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	res, err := daemon.Build(context.Background(), cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout(g), "Compiled %d pages into %s (%d failed)\n", res.Rendered, cfg.OutputRoot(), res.Failed)
	return nil
}
