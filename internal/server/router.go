// Package server exposes compiled pages, static assets and live reload over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/tn/internal/logfields"
)

// Options configure the router. Nil handlers disable their routes.
type Options struct {
	// OutputRoot holds the compiled pages.
	OutputRoot string
	// AssetsDir is served under /assets/.
	AssetsDir string
	// LiveReload serves the SSE stream at /livereload.
	LiveReload http.Handler
	// LiveReloadScript serves /livereload.js.
	LiveReloadScript http.Handler
	Metrics          http.Handler
	MetricsPath      string
	Logger           *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	if opts.LiveReload != nil {
		r.Handle("/livereload", opts.LiveReload)
	}
	if opts.LiveReloadScript != nil {
		r.Handle("/livereload.js", opts.LiveReloadScript)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.Metrics)
	}
	if opts.AssetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets", files(opts.AssetsDir, false)))
	}
	r.Handle("/*", files(opts.OutputRoot, true))
	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debug("HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(status),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
				logfields.RequestID(middleware.GetReqID(r.Context())))
		})
	}
}
