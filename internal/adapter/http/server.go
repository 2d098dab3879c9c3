// Package http exposes the harvester's operational endpoints: liveness,
// readiness, harvest status, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HarvestReporter is the slice of the harvester the server exposes:
// readiness gating and the last completed harvest's outcome.
type HarvestReporter interface {
	CheckReadiness(ctx context.Context) error
	Status() (lastHarvest time.Time, stations int)
}

// Server serves the operational endpoints beside the harvest loop.
type Server struct {
	httpServer *http.Server
	harvester  HarvestReporter
	logger     *slog.Logger
}

// NewServer creates the operational HTTP server. Routes:
//
//	GET /healthz  process liveness
//	GET /readyz   503 until the first harvest completes
//	GET /statusz  last harvest time and row count
//	GET /metrics  Prometheus registry
func NewServer(addr string, harvester HarvestReporter, logger *slog.Logger) *Server {
	s := &Server{harvester: harvester, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /statusz", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.harvester.CheckReadiness(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// harvestStatus is the /statusz body. LastHarvest is null until the first
// harvest completes.
type harvestStatus struct {
	LastHarvest *time.Time `json:"last_harvest"`
	Stations    int        `json:"stations"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	last, stations := s.harvester.Status()

	status := harvestStatus{Stations: stations}
	if !last.IsZero() {
		status.LastHarvest = &last
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}
