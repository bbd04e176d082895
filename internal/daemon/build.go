package daemon

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/tn/internal/config"
	"git.home.luguber.info/inful/tn/internal/crawler"
	"git.home.luguber.info/inful/tn/internal/generator"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// Build compiles the whole source tree once.
func Build(ctx context.Context, cfg *config.Config) (generator.Result, error) {
	comps, err := newComponents(cfg)
	if err != nil {
		return generator.Result{}, err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			slog.Warn("Shutdown of optional components failed", logfields.Error(err))
		}
	}()

	gen, err := comps.generator(cfg, false)
	if err != nil {
		return generator.Result{}, err
	}
	files, err := crawler.Crawl(gen.SourceRoot())
	if err != nil {
		return generator.Result{}, err
	}

	b := NewBatch(ReasonInitial, crawler.Paths(files))
	if j := comps.batchJournal(); j != nil {
		if err := j.BatchStarted(ctx, b.ID, b.Reason, len(b.Paths)); err != nil {
			slog.Warn("Journal write failed", logfields.Error(err))
		}
	}
	res, genErr := gen.GenerateBatch(b.ID, b.Paths)
	if j := comps.batchJournal(); j != nil {
		if err := j.BatchCompleted(ctx, b.ID, res, genErr); err != nil {
			slog.Warn("Journal write failed", logfields.Error(err))
		}
	}
	slog.Info("Build complete",
		logfields.Project(cfg.Name),
		logfields.Output(gen.OutputRoot()),
		logfields.Rendered(res.Rendered),
		logfields.Failed(res.Failed),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, genErr
}
