// Package daemon keeps compiled pages in sync with a source tree: a single
// worker owns the generator and processes change batches in arrival order.
package daemon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tn/internal/generator"
	"git.home.luguber.info/inful/tn/internal/logfields"
	"git.home.luguber.info/inful/tn/internal/metrics"
)

// DefaultQueueSize is the number of batches that may wait for the worker.
const DefaultQueueSize = 64

// Batch reasons.
const (
	ReasonInitial = "initial"
	ReasonWatch   = "watch"
	ReasonRescan  = "rescan"
)

// ErrWorkerStopped is returned by Submit once the worker has stopped running.
var ErrWorkerStopped = errors.New("worker stopped")

// Batch is one ordered set of changed paths handled by a single generation pass.
type Batch struct {
	ID     string
	Paths  []string
	Reason string
}

// NewBatch assigns a fresh ID to paths.
func NewBatch(reason string, paths []string) Batch {
	return Batch{ID: uuid.NewString(), Paths: paths, Reason: reason}
}

// Generator is the part of *generator.Generator the worker drives.
type Generator interface {
	GenerateBatch(batchID string, paths []string) (generator.Result, error)
}

// BatchJournal records batch boundaries. *journal.Journal implements it.
type BatchJournal interface {
	BatchStarted(ctx context.Context, batchID, reason string, paths int) error
	BatchCompleted(ctx context.Context, batchID string, res generator.Result, err error) error
}

// Broadcaster is notified after batches that wrote pages. *LiveReloadHub implements it.
type Broadcaster interface {
	Broadcast(id string)
}

type WorkerOptions struct {
	QueueSize int
	Recorder  metrics.Recorder
	Journal   BatchJournal
	Reload    Broadcaster
	// OnBatch runs after each batch on the worker goroutine.
	OnBatch func(Batch, generator.Result, error)
}

// Worker is the single owner of a Generator.
type Worker struct {
	gen      Generator
	queue    chan Batch
	stopped  chan struct{}
	recorder metrics.Recorder
	journal  BatchJournal
	reload   Broadcaster
	onBatch  func(Batch, generator.Result, error)
}

func NewWorker(gen Generator, opts WorkerOptions) *Worker {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Worker{
		gen:      gen,
		queue:    make(chan Batch, size),
		stopped:  make(chan struct{}),
		recorder: rec,
		journal:  opts.Journal,
		reload:   opts.Reload,
		onBatch:  opts.OnBatch,
	}
}

// Submit enqueues b, blocking while the queue is full until ctx is done.
func (w *Worker) Submit(ctx context.Context, b Batch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	select {
	case <-w.stopped:
		return ErrWorkerStopped
	default:
	}
	select {
	case w.queue <- b:
		w.recorder.SetQueueDepth(len(w.queue))
		return nil
	case <-w.stopped:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes batches until ctx is cancelled. A batch that has started is
// always finished.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-w.queue:
			w.recorder.SetQueueDepth(len(w.queue))
			w.process(b)
		}
	}
}

func (w *Worker) process(b Batch) {
	// Journal writes outlive the run context so the completion record lands.
	ctx := context.Background()
	log := slog.With(logfields.BatchID(b.ID), logfields.Reason(b.Reason))

	if w.journal != nil {
		if err := w.journal.BatchStarted(ctx, b.ID, b.Reason, len(b.Paths)); err != nil {
			log.Warn("Journal write failed", logfields.Error(err))
		}
	}

	res, err := w.gen.GenerateBatch(b.ID, b.Paths)
	attrs := []any{
		logfields.Count(len(b.Paths)),
		logfields.Rendered(res.Rendered),
		logfields.Skipped(res.Skipped),
		logfields.Failed(res.Failed),
		slog.Bool("full_rebuild", res.FullRebuild),
		logfields.DurationMS(float64(res.Duration.Microseconds()) / 1000),
	}
	if err != nil {
		log.Warn("Batch finished with errors", append(attrs, logfields.Error(err))...)
	} else {
		log.Info("Batch processed", attrs...)
	}

	if w.journal != nil {
		if jerr := w.journal.BatchCompleted(ctx, b.ID, res, err); jerr != nil {
			log.Warn("Journal write failed", logfields.Error(jerr))
		}
	}
	if w.reload != nil && res.Changed() {
		w.reload.Broadcast(b.ID)
	}
	if w.onBatch != nil {
		w.onBatch(b, res, err)
	}
}
