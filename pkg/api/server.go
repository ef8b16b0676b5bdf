package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/manager"
	"github.com/scribehq/scribe/pkg/metrics"
	"github.com/scribehq/scribe/pkg/storage"
)

// Server exposes the recording and replay API over HTTP/JSON.
type Server struct {
	manager *manager.Manager
	mux     *http.ServeMux
	http    *http.Server
	logger  zerolog.Logger
}

// NewServer creates a new API server. An empty authToken disables the
// bearer-token gate (ownership checks are the job of the auth
// collaborator in front of this service).
func NewServer(mgr *manager.Manager, authToken string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		manager: mgr,
		mux:     mux,
		logger:  log.WithComponent("api"),
	}

	protected := func(h http.HandlerFunc) http.Handler {
		return s.instrument(requireToken(authToken, h))
	}

	mux.Handle("POST /v1/sessions", protected(s.handleStartSession))
	mux.Handle("GET /v1/sessions", protected(s.handleListSessions))
	mux.Handle("GET /v1/sessions/{id}", protected(s.handleGetSession))
	mux.Handle("POST /v1/sessions/{id}/end", protected(s.handleEndSession))
	mux.Handle("POST /v1/sessions/{id}/events", protected(s.handleRecordEvent))
	mux.Handle("POST /v1/sessions/{id}/events/batch", protected(s.handleBatch))
	mux.Handle("GET /v1/sessions/{id}/replay", protected(s.handleReplay))
	mux.Handle("GET /v1/sessions/{id}/events/watch", protected(s.handleWatch))

	// Operational endpoints stay unauthenticated.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if req.CandidateID == "" {
		writeError(w, http.StatusBadRequest, errors.New("candidate_id is required"))
		return
	}

	session, err := s.manager.StartSession(req.CandidateID, req.AssessmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.ListSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions, Count: len(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.GetSession(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.EndSession(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var payload EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if payload.Type == "" {
		writeError(w, http.StatusBadRequest, storage.ErrEmptyEventType)
		return
	}

	event, err := s.manager.RecordEvent(r.PathValue("id"), payload.Type, payload.Origin, payload.Data)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("batch must contain at least one event"))
		return
	}

	stored, err := s.manager.RecordBatch(r.PathValue("id"), toPendings(req.Events))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BatchResponse{Events: stored, Count: len(stored)})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	timer := metrics.NewTimer()

	replay, err := s.manager.Replay(r.PathValue("id"))
	if err != nil {
		// No partial replay: any read failure is a hard error.
		writeStoreError(w, err)
		return
	}

	metrics.ReplaysBuiltTotal.Inc()
	timer.ObserveDuration(metrics.ReplayBuildDuration)
	writeJSON(w, http.StatusOK, replay)
}

// handleWatch streams live appends for one session as server-sent
// events until the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := s.manager.GetSession(sessionID); err != nil {
		writeStoreError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	sub := s.manager.Watch(sessionID)
	defer s.manager.Unwatch(sessionID, sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case event, open := <-sub:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeStoreError maps storage sentinels to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrSessionEnded):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, storage.ErrEmptyEventType):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
