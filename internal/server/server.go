package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

// Server runs an http.Server on a pre-bound listener so bind failures
// surface from Start.
type Server struct {
	addr string
	srv  *http.Server
	ln   net.Listener
	errs chan error
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		errs: make(chan error, 1),
	}
}

// Start binds the address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return terrors.ServerError(s.addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "addr", s.addr, "error", err)
			s.errs <- terrors.ServerError(s.addr, err)
		}
		close(s.errs)
	}()
	slog.Info("HTTP server started", "addr", s.Addr())
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Errors reports a failure of the serve loop after Start. It is closed when
// the server stops.
func (s *Server) Errors() <-chan error { return s.errs }

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
