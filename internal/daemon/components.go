package daemon

import (
	"errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/tn/internal/config"
	"git.home.luguber.info/inful/tn/internal/generator"
	"git.home.luguber.info/inful/tn/internal/journal"
	"git.home.luguber.info/inful/tn/internal/logfields"
	"git.home.luguber.info/inful/tn/internal/metrics"
	"git.home.luguber.info/inful/tn/internal/notify"
)

// components are the optional collaborators shared by build and serve.
type components struct {
	registry  *prom.Registry
	recorder  metrics.Recorder
	journal   *journal.Journal
	publisher *notify.Publisher
}

func newComponents(cfg *config.Config) (*components, error) {
	c := &components{recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Enabled {
		c.registry = prom.NewRegistry()
		c.recorder = metrics.NewPrometheusRecorder(c.registry)
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return nil, err
		}
		c.journal = j
		slog.Info("Journal enabled", logfields.Path(cfg.JournalPath()))
	}
	if cfg.NATS.Enabled {
		p, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject, cfg.Name)
		if err != nil {
			// Best effort.
			slog.Warn("NATS unavailable; page events will not be published", logfields.URL(cfg.NATS.URL), logfields.Error(err))
		} else {
			c.publisher = p
		}
	}
	return c, nil
}

func (c *components) generator(cfg *config.Config, refresh bool) (*generator.Generator, error) {
	opts := []generator.Option{
		generator.WithRecorder(c.recorder),
		generator.WithContinueAfterNavigation(cfg.Daemon.ContinueAfterNavigation),
	}
	if c.journal != nil {
		opts = append(opts, generator.WithObserver(c.journal))
	}
	if c.publisher != nil {
		opts = append(opts, generator.WithObserver(c.publisher))
	}
	return generator.New(generator.Options{
		SourceRoot: cfg.Src,
		Project:    cfg.Name,
		OutputRoot: cfg.OutputRoot(),
		Refresh:    refresh,
	}, opts...)
}

// batchJournal returns the journal as a BatchJournal, or nil when disabled.
func (c *components) batchJournal() BatchJournal {
	if c.journal == nil {
		return nil
	}
	return c.journal
}

func (c *components) Close() error {
	var errs []error
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.journal != nil {
		errs = append(errs, c.journal.Close())
	}
	return errors.Join(errs...)
}
