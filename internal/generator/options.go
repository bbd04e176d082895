package generator

import (
	"log/slog"

	"git.home.luguber.info/inful/tn/internal/metrics"
)

// NavigationFile is the name of the shared navigation document at the source root.
const NavigationFile = "index.nav"

// Options carry the values a Generator cannot run without.
type Options struct {
	// SourceRoot is the directory the markdown sources live under.
	SourceRoot string
	// Project names the compiled site; it is the title of every page.
	Project string
	// OutputRoot is where compiled pages are written, usually <storage>/cache/<project>.
	OutputRoot string
	// Refresh makes pages subscribe to live reload.
	Refresh bool
}

// Option customizes optional Generator behavior.
type Option func(*Generator)

// WithContinueAfterNavigation controls what happens to the candidates that
// follow the navigation file in a batch. By default they are dropped once the
// full sweep ran; when enabled they are evaluated as usual.
func WithContinueAfterNavigation(enabled bool) Option {
	return func(g *Generator) { g.continueAfterNav = enabled }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithObserver registers an observer for page events. May be given several times.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}
