package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tn/internal/generator"
)

type fakeGenerator struct {
	mu      sync.Mutex
	batches []string
	active  int
	overlap bool
	delay   time.Duration
	result  generator.Result
	err     error
}

func (f *fakeGenerator) GenerateBatch(id string, _ []string) (generator.Result, error) {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.active--
	f.batches = append(f.batches, id)
	f.mu.Unlock()
	return f.result, f.err
}

type fakeJournal struct {
	mu     sync.Mutex
	events []string
}

func (j *fakeJournal) BatchStarted(_ context.Context, id, reason string, _ int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, "start:"+id+":"+reason)
	return nil
}

func (j *fakeJournal) BatchCompleted(_ context.Context, id string, _ generator.Result, err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry := "done:" + id
	if err != nil {
		entry += ":" + err.Error()
	}
	j.events = append(j.events, entry)
	return nil
}

type fakeBroadcaster struct {
	mu  sync.Mutex
	ids []string
}

func (b *fakeBroadcaster) Broadcast(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = append(b.ids, id)
}

func runWorker(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWorker_ProcessesBatchesInSubmissionOrder(t *testing.T) {
	gen := &fakeGenerator{delay: 2 * time.Millisecond}
	processed := make(chan string, 32)
	w := NewWorker(gen, WorkerOptions{
		QueueSize: 4,
		OnBatch:   func(b Batch, _ generator.Result, _ error) { processed <- b.ID },
	})
	runWorker(t, w)

	var want []string
	for i := range 20 {
		b := NewBatch(ReasonWatch, []string{"/src/a.md"})
		b.ID = string(rune('a' + i))
		want = append(want, b.ID)
		require.NoError(t, w.Submit(t.Context(), b))
	}

	var got []string
	for range want {
		select {
		case id := <-processed:
			got = append(got, id)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for batches")
		}
	}
	assert.Equal(t, want, got)

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.False(t, gen.overlap, "batches must not be processed concurrently")
	assert.Equal(t, want, gen.batches)
}

func TestWorker_SubmitAppliesBackpressure(t *testing.T) {
	w := NewWorker(&fakeGenerator{}, WorkerOptions{QueueSize: 1})
	require.NoError(t, w.Submit(t.Context(), NewBatch(ReasonWatch, nil)))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := w.Submit(ctx, NewBatch(ReasonWatch, nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := NewWorker(&fakeGenerator{}, WorkerOptions{})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, w.Run(ctx))

	err := w.Submit(t.Context(), NewBatch(ReasonWatch, nil))
	require.ErrorIs(t, err, ErrWorkerStopped)
}

func TestWorker_JournalsAndBroadcasts(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Rendered: 1}, err: errors.New("partial")}
	j := &fakeJournal{}
	reload := &fakeBroadcaster{}
	processed := make(chan struct{}, 1)
	w := NewWorker(gen, WorkerOptions{
		Journal: j,
		Reload:  reload,
		OnBatch: func(Batch, generator.Result, error) { processed <- struct{}{} },
	})
	runWorker(t, w)

	require.NoError(t, w.Submit(t.Context(), Batch{ID: "b1", Reason: ReasonRescan}))
	<-processed

	j.mu.Lock()
	assert.Equal(t, []string{"start:b1:rescan", "done:b1:partial"}, j.events)
	j.mu.Unlock()
	reload.mu.Lock()
	assert.Equal(t, []string{"b1"}, reload.ids)
	reload.mu.Unlock()
}

func TestWorker_NoBroadcastWithoutChanges(t *testing.T) {
	reload := &fakeBroadcaster{}
	processed := make(chan struct{}, 1)
	w := NewWorker(&fakeGenerator{}, WorkerOptions{
		Reload:  reload,
		OnBatch: func(Batch, generator.Result, error) { processed <- struct{}{} },
	})
	runWorker(t, w)

	require.NoError(t, w.Submit(t.Context(), NewBatch(ReasonWatch, []string{"/x.md"})))
	<-processed
	reload.mu.Lock()
	defer reload.mu.Unlock()
	assert.Empty(t, reload.ids)
}

func TestNewBatch_AssignsUniqueIDs(t *testing.T) {
	a := NewBatch(ReasonInitial, []string{"/a.md"})
	b := NewBatch(ReasonInitial, []string{"/a.md"})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, ReasonInitial, a.Reason)
}
