package metrics

import "time"

// ResultLabel enumerates per-page outcomes for counters.
type ResultLabel string

const (
	ResultRendered ResultLabel = "rendered"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
)

// Recorder defines observability hooks for the compilation pipeline.
// Implementations may forward to Prometheus or similar backends.
type Recorder interface {
	ObserveBatchDuration(d time.Duration)
	ObserveRenderDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	IncFullRebuild()
	SetTrackedFiles(n int)
	SetQueueDepth(n int)
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBatchDuration(time.Duration)  {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) IncPageResult(ResultLabel)           {}
func (NoopRecorder) IncFullRebuild()                     {}
func (NoopRecorder) SetTrackedFiles(int)                 {}
func (NoopRecorder) SetQueueDepth(int)                   {}
func (NoopRecorder) SetLiveReloadClients(int)            {}
