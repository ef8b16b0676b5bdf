package api

import (
	"net/http"
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// Version is stamped via ldflags at build time.
var Version = "dev"

// handleHealth is a simple liveness check - returns 200 if the
// process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   Version,
	})
}

// handleReady checks whether the service can actually serve traffic:
// the store must answer a read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK
	state := "ready"
	var message string

	if _, err := s.manager.ListSessions(); err != nil {
		checks["store"] = "unavailable: " + err.Error()
		status = http.StatusServiceUnavailable
		state = "not_ready"
		message = "waiting for store"
	} else {
		checks["store"] = "ready"
	}

	writeJSON(w, status, ReadyResponse{
		Status:    state,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
		Message:   message,
	})
}
