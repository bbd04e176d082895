package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/tn/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host         string `help:"Override the listen host"`
	Port         int    `short:"p" help:"Override the listen port"`
	NoLiveReload bool   `name:"no-live-reload" help:"Do not inject the live reload script"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.NoLiveReload {
		off := false
		cfg.Server.LiveReload = &off
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return daemon.Serve(ctx, cfg)
}
