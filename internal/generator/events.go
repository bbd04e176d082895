package generator

import "time"

// EventType names a generation event.
type EventType string

const (
	EventPageGenerated     EventType = "page_generated"
	EventPageFailed        EventType = "page_failed"
	EventNavigationChanged EventType = "navigation_changed"
)

// Event describes one observable outcome of a Generate call.
type Event struct {
	Type        EventType
	BatchID     string
	Source      string
	Output      string
	Hash        string
	Fingerprint string
	Error       string
	Time        time.Time
}

// Observer receives events synchronously from the generating goroutine.
// Implementations must not call back into the Generator.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Result summarizes one Generate call.
type Result struct {
	Rendered    int
	Skipped     int
	Failed      int
	FullRebuild bool
	Duration    time.Duration
}

// Changed reports whether any page was written.
func (r Result) Changed() bool { return r.Rendered > 0 }
