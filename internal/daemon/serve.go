package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/tn/internal/changefeed"
	"git.home.luguber.info/inful/tn/internal/config"
	"git.home.luguber.info/inful/tn/internal/crawler"
	"git.home.luguber.info/inful/tn/internal/logfields"
	"git.home.luguber.info/inful/tn/internal/metrics"
	"git.home.luguber.info/inful/tn/internal/server"
)

const shutdownTimeout = 5 * time.Second

// Serve compiles the source tree, serves it over HTTP and keeps it in sync
// with filesystem changes until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config) error {
	comps, err := newComponents(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			slog.Warn("Shutdown of optional components failed", logfields.Error(err))
		}
	}()

	liveReload := cfg.LiveReloadEnabled()
	gen, err := comps.generator(cfg, liveReload)
	if err != nil {
		return err
	}
	files, err := crawler.Crawl(gen.SourceRoot())
	if err != nil {
		return err
	}

	watcher, err := changefeed.New(gen.SourceRoot(), changefeed.Options{Debounce: cfg.Daemon.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	var hub *LiveReloadHub
	workerOpts := WorkerOptions{
		QueueSize: cfg.Daemon.QueueSize,
		Recorder:  comps.recorder,
		Journal:   comps.batchJournal(),
	}
	if liveReload {
		hub = NewLiveReloadHub(comps.recorder)
		workerOpts.Reload = hub
	}
	worker := NewWorker(gen, workerOpts)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = worker.Run(runCtx)
	}()

	if err := worker.Submit(runCtx, NewBatch(ReasonInitial, crawler.Paths(files))); err != nil {
		return err
	}

	routerOpts := server.Options{
		OutputRoot:  gen.OutputRoot(),
		AssetsDir:   cfg.AssetsDir(),
		MetricsPath: cfg.Metrics.Path,
	}
	if hub != nil {
		routerOpts.LiveReload = hub
		routerOpts.LiveReloadScript = http.HandlerFunc(ServeScript)
	}
	if comps.registry != nil {
		routerOpts.Metrics = metrics.HTTPHandler(comps.registry)
	}

	var sched *Scheduler
	if cfg.Daemon.RescanInterval > 0 {
		sched, err = NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRescan(runCtx, cfg.Daemon.RescanInterval, gen.SourceRoot(), worker); err != nil {
			return err
		}
	}

	srv := server.New(cfg.Addr(), server.NewRouter(routerOpts))
	if err := srv.Start(runCtx); err != nil {
		if sched != nil {
			_ = sched.Stop()
		}
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := watcher.Run(runCtx, func(paths []string) {
			b := NewBatch(ReasonWatch, paths)
			if err := worker.Submit(runCtx, b); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("Could not submit change batch", logfields.BatchID(b.ID), logfields.Error(err))
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Change feed stopped", logfields.Error(err))
		}
	}()

	if sched != nil {
		sched.Start()
	}

	slog.Info("Serving",
		logfields.Project(cfg.Name),
		logfields.Root(watcher.Root()),
		logfields.Output(gen.OutputRoot()),
		logfields.URL("http://"+srv.Addr()))

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-srv.Errors():
		if ok {
			serveErr = err
		}
	}

	slog.Info("Shutting down")
	cancel()
	if sched != nil {
		if err := sched.Stop(); err != nil {
			slog.Warn("Scheduler shutdown error", logfields.Error(err))
		}
	}
	if err := watcher.Close(); err != nil {
		slog.Warn("Watcher close error", logfields.Error(err))
	}
	if hub != nil {
		slog.Debug("Closing live reload clients", logfields.Count(hub.Clients()))
		hub.Shutdown()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	wg.Wait()
	return serveErr
}
