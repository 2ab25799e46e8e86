// Package health exposes the market watch daemon's probe endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DatabasePinger is the connectivity check run by the readiness probe.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Config holds the probe server settings.
type Config struct {
	ServiceName string
	Version     string
	Port        string
	Logger      *logrus.Logger
	DB          DatabasePinger
}

// Server answers /health (process is up) and /ready (startup wiring is
// complete and the database responds). It also tracks when the last
// poll pass finished so operators can spot a stalled watch loop.
type Server struct {
	service string
	version string
	port    string
	logger  *logrus.Logger
	db      DatabasePinger
	started time.Time

	mu       sync.RWMutex
	ready    bool
	lastScan time.Time

	server *http.Server
}

// NewServer creates the probe server. Port falls back to HEALTH_PORT,
// then 8080.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("HEALTH_PORT")
	}
	if port == "" {
		port = "8080"
	}

	return &Server{
		service: cfg.ServiceName,
		version: cfg.Version,
		port:    port,
		logger:  cfg.Logger,
		db:      cfg.DB,
		started: time.Now(),
	}
}

// SetReady flips the readiness gate once startup wiring is complete.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// RecordScan notes the completion time of a poll pass.
func (s *Server) RecordScan(t time.Time) {
	s.mu.Lock()
	s.lastScan = t
	s.mu.Unlock()
}

func (s *Server) snapshot() (bool, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready, s.lastScan
}

// Start serves the probe endpoints in the background until the context
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)

	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":    s.port,
			"service": s.service,
		}).Info("Probe server starting")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Probe server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown stops the probe server, waiting briefly for in-flight requests.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("Probe server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleHealth reports that the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.service,
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the daemon can do useful work: wiring
// complete and the database answering. Carries the last scan time once
// a pass has completed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready, lastScan := s.snapshot()
	checks := make(map[string]string)
	ok := true

	if ready {
		checks["daemon"] = "ok"
	} else {
		ok = false
		checks["daemon"] = "starting"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			ok = false
			checks["database"] = "error: " + err.Error()
		} else {
			checks["database"] = "ok"
		}
	}

	body := map[string]any{
		"service": s.service,
		"checks":  checks,
	}
	if !lastScan.IsZero() {
		body["last_scan"] = lastScan.UTC().Format(time.RFC3339)
	}

	status := http.StatusOK
	body["status"] = "ok"
	if !ok {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
