// Package admin serves the operational HTTP surface: liveness, readiness,
// Prometheus metrics, a JSON status snapshot and the websocket feed.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jonasrmichel/solana-cycles/pkg/metrics"
)

// StatusFunc returns a JSON-encodable snapshot of the running components.
type StatusFunc func() any

// Server is the admin HTTP server.
type Server struct {
	registry *prometheus.Registry
	feed     http.Handler
	status   StatusFunc
	logger   zerolog.Logger

	ready atomic.Bool
}

// NewServer creates an admin server. feed and status may be nil.
func NewServer(registry *prometheus.Registry, feed http.Handler, status StatusFunc, logger zerolog.Logger) *Server {
	return &Server{
		registry: registry,
		feed:     feed,
		status:   status,
		logger:   logger.With().Str("component", "admin").Logger(),
	}
}

// SetReady marks readiness state.
func (s *Server) SetReady(v bool) {
	s.ready.Store(v)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if s.registry != nil {
		r.Handle("/metrics", metrics.Handler(s.registry))
	}
	if s.status != nil {
		r.Get("/status", s.statusJSON)
	}
	if s.feed != nil {
		r.Handle("/feed", s.feed)
	}

	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	http.Error(w, "not ready", http.StatusServiceUnavailable)
}

func (s *Server) statusJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode status")
	}
}
