// Package http exposes the service's operational endpoints: health,
// readiness, Prometheus metrics, and the active classification policy.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// policyView is the /policyz response: the classification policy this
// instance is actually running with, for debugging threshold rollouts.
type policyView struct {
	Thresholds        map[domain.Pollutant][]domain.Breakpoint `json:"thresholds"`
	BreachFloor       domain.Severity                          `json:"breach_floor"`
	WindowGranularity string                                   `json:"window_granularity"`
	EpisodeMaxGap     string                                   `json:"episode_max_gap"`
}

// Server exposes health, readiness, metrics, and policy HTTP endpoints.
type Server struct {
	httpServer *http.Server
	policy     policyView
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /policyz, and
// /metrics routes.
func NewServer(cfg *config.Config, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		policy: policyView{
			Thresholds:        cfg.Thresholds,
			BreachFloor:       cfg.BreachFloor,
			WindowGranularity: cfg.WindowGranularity.String(),
			EpisodeMaxGap:     cfg.EpisodeMaxGap.String(),
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /policyz", s.handlePolicy)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handlePolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.policy)
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
