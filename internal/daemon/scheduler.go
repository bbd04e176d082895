package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/tn/internal/crawler"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// Scheduler wraps the gocron scheduler for periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval and returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", errors.New("interval must be positive")
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// ScheduleRescan crawls root every interval and submits everything found as
// a batch. Unchanged files are skipped by the generator, so this only picks
// up changes the change feed missed.
func (s *Scheduler) ScheduleRescan(ctx context.Context, interval time.Duration, root string, w *Worker) (string, error) {
	return s.ScheduleEvery("rescan", interval, func() {
		files, err := crawler.Crawl(root)
		if err != nil {
			slog.Error("Scheduled rescan failed", logfields.Root(root), logfields.Error(err))
			return
		}
		b := NewBatch(ReasonRescan, crawler.Paths(files))
		slog.Debug("Submitting rescan", logfields.BatchID(b.ID), logfields.Count(len(b.Paths)))
		if err := w.Submit(ctx, b); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Could not submit rescan", logfields.BatchID(b.ID), logfields.Error(err))
		}
	})
}
