// Package server exposes health and status endpoints for the poll loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"homework-notifier/poll"
)

// Poller interface for reading loop state and waking it up.
type Poller interface {
	Snapshot() poll.Status
	Trigger()
}

// Server handles HTTP requests.
type Server struct {
	poller Poller
	logger *slog.Logger
}

// New creates a new HTTP server handler.
func New(poller Poller, logger *slog.Logger) *Server {
	return &Server{
		poller: poller,
		logger: logger,
	}
}

// Handler returns the routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/statusz", s.handleStatus)
	mux.HandleFunc("/pollz", s.handlePoll)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	// Configure server with timeouts to prevent resource exhaustion
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("Starting HTTP server", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, `{"status":"healthy"}`); err != nil {
		s.logger.Warn("Failed to write health response", "error", err)
	}
}

type statusResponse struct {
	State         string `json:"state"`
	LastError     string `json:"last_error,omitempty"`
	LastErrorKind string `json:"last_error_kind,omitempty"`
	LastCycleAt   string `json:"last_cycle_at,omitempty"`
	LastSuccessAt string `json:"last_success_at,omitempty"`
	LastSuccess   string `json:"last_success,omitempty"`
	Cursor        int64  `json:"cursor"`
	Cycles        int    `json:"cycles"`
	Failures      int    `json:"failures"`
	Notifications int    `json:"notifications"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.poller.Snapshot()
	resp := statusResponse{
		State:         st.State.String(),
		LastError:     st.LastError,
		LastErrorKind: string(st.LastErrorKind),
		Cursor:        st.Cursor,
		Cycles:        st.Cycles,
		Failures:      st.Failures,
		Notifications: st.Notifications,
	}
	if !st.LastCycleAt.IsZero() {
		resp.LastCycleAt = st.LastCycleAt.UTC().Format(time.RFC3339)
	}
	if !st.LastSuccessAt.IsZero() {
		resp.LastSuccessAt = st.LastSuccessAt.UTC().Format(time.RFC3339)
		resp.LastSuccess = humanize.Time(st.LastSuccessAt)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write status response", "error", err)
	}
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.logger.Info("Poll endpoint triggered")
	s.poller.Trigger()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if _, err := fmt.Fprint(w, `{"status":"scheduled"}`); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
