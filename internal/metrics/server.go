package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Collector produces one cycle's worth of observations. Implemented by the
// orchestrator; per-service failures degrade inside Collect, so it never
// returns an error.
type Collector interface {
	Collect(ctx context.Context) ObservationSet
}

// Server provides the HTTP endpoints Prometheus scrapes: /metrics plus
// health checks.
type Server struct {
	addr      string
	collector Collector
	self      *SelfMetrics
	server    *http.Server
	logger    *slog.Logger
}

// NewServer creates a metrics server. self may be nil when the exporter's
// own instrumentation is not wanted (tests).
func NewServer(addr string, collector Collector, self *SelfMetrics, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		collector: collector,
		self:      self,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/healthz", healthHandler)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return s
}

// handleMetrics performs a fresh collection cycle and serves it as text
// exposition. Per-service failures have already been absorbed by the
// collector, so the response is 200 with whatever subset was derivable; an
// empty well-formed body when everything failed.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	set := s.collector.Collect(r.Context())

	families, err := Families(set)
	if err != nil {
		// Only an EncodingError lands here; it signals a normalizer bug.
		s.logger.Error("exposition_error", "error", err)
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			http.Error(w, "internal exposition error", http.StatusInternalServerError)
			return
		}
	}

	if s.self != nil {
		selfFamilies, err := s.self.Gather()
		if err != nil {
			s.logger.Error("self_metrics_gather_error", "error", err)
		} else {
			families = append(families, selfFamilies...)
			SortFamilies(families)
		}
	}

	w.Header().Set("Content-Type", ContentType)
	if err := EncodeFamilies(w, families); err != nil {
		s.logger.Error("exposition_write_error", "error", err)
	}
}

// healthHandler handles health check requests.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// Start starts the metrics server in a goroutine.
// Returns immediately. Use Shutdown to stop.
func (s *Server) Start() error {
	s.logger.Info("metrics_server_starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics_server_error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("metrics_server_shutting_down")
	return s.server.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.addr
}
