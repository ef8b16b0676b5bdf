package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/manager"
	"github.com/scribehq/scribe/pkg/types"
)

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()
	mgr, err := manager.NewManager(&manager.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown() })
	return NewServer(mgr, authToken)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, s *Server) *types.Session {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/v1/sessions", StartSessionRequest{CandidateID: "cand-1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var session types.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	return &session
}

// TestStartSessionEndpoint covers creation and validation.
func TestStartSessionEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	session := startSession(t, s)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "cand-1", session.CandidateID)

	// candidate_id is mandatory
	w := doJSON(t, s, http.MethodPost, "/v1/sessions", StartSessionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestBatchEndpointStoresInOrder: a batch comes back with consecutive
// sequence numbers continuing the session's log.
func TestBatchEndpointStoresInOrder(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events/batch", BatchRequest{
		Events: []EventPayload{
			{Type: types.EventCodeSnapshot, Data: json.RawMessage(`{"hash":"a"}`)},
			{Type: types.EventChatUserMsg},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp BatchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, 2, resp.Count)
	// session.start holds sequence 0
	assert.Equal(t, int64(1), resp.Events[0].SequenceNumber)
	assert.Equal(t, int64(2), resp.Events[1].SequenceNumber)
}

// TestBatchEndpointErrors maps the failure modes to status codes.
func TestBatchEndpointErrors(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{
			name:       "unknown session",
			path:       "/v1/sessions/missing/events/batch",
			body:       BatchRequest{Events: []EventPayload{{Type: types.EventCodeEdit}}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty batch",
			path:       "/v1/sessions/" + session.ID + "/events/batch",
			body:       BatchRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing event type",
			path:       "/v1/sessions/" + session.ID + "/events/batch",
			body:       BatchRequest{Events: []EventPayload{{}}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// TestBatchAtomicityOverHTTP: a batch with one invalid event persists
// nothing.
func TestBatchAtomicityOverHTTP(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events/batch", BatchRequest{
		Events: []EventPayload{
			{Type: types.EventCodeSnapshot},
			{}, // invalid
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/sessions/"+session.ID+"/replay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var replay types.Replay
	require.NoError(t, json.NewDecoder(w.Body).Decode(&replay))
	assert.Len(t, replay.Events, 1) // only session.start
}

// TestRecordEventEndpoint covers the single-append recorder interface.
func TestRecordEventEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events", EventPayload{
		Type:   types.EventTestResult,
		Origin: types.OriginAgent,
		Data:   json.RawMessage(`{"passed":true}`),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var event types.Event
	require.NoError(t, json.NewDecoder(w.Body).Decode(&event))
	assert.Equal(t, types.OriginAgent, event.Origin)
	assert.Equal(t, types.CategoryTest, event.Category)
}

// TestReplayEndpointReturnsFullPayload: session, events, timeline, and
// metrics arrive in one response.
func TestReplayEndpointReturnsFullPayload(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events/batch", BatchRequest{
		Events: []EventPayload{
			{Type: types.EventTestResult, Data: json.RawMessage(`{"passed":true}`)},
			{Type: types.EventTestResult, Data: json.RawMessage(`{"passed":false}`)},
		},
	})

	w := doJSON(t, s, http.MethodGet, "/v1/sessions/"+session.ID+"/replay", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var replay types.Replay
	require.NoError(t, json.NewDecoder(w.Body).Decode(&replay))
	require.NotNil(t, replay.Session)
	assert.Equal(t, session.ID, replay.Session.ID)
	assert.Len(t, replay.Events, 3)
	assert.Len(t, replay.Timeline, 3)
	assert.Equal(t, 0.5, replay.Metrics.TestPassRate)
}

// TestReplayUnknownSession is 404, no partial body.
func TestReplayUnknownSession(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/v1/sessions/missing/replay", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestEndSessionEndpoint: ending twice conflicts, appending after the
// end conflicts.
func TestEndSessionEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/end", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events", EventPayload{Type: types.EventCodeEdit})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestListSessionsEndpoint returns all sessions with a count.
func TestListSessionsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	startSession(t, s)
	startSession(t, s)

	w := doJSON(t, s, http.MethodGet, "/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Sessions, 2)
}

// TestHealthEndpoints: liveness and readiness respond without auth.
func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, "secret")

	for _, path := range []string{"/health", "/ready"} {
		w := doJSON(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

// TestBearerTokenGate: protected routes demand the token, wrong or
// missing tokens are 401.
func TestBearerTokenGate(t *testing.T) {
	s := newTestServer(t, "secret")

	w := doJSON(t, s, http.MethodGet, "/v1/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMethodRouting: the mux rejects wrong methods on routed paths.
func TestMethodRouting(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodDelete, "/v1/sessions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestLargeBatch keeps the common case unpaginated: thousands of
// events in one batch and one replay read.
func TestLargeBatch(t *testing.T) {
	s := newTestServer(t, "")
	session := startSession(t, s)

	events := make([]EventPayload, 2000)
	for i := range events {
		events[i] = EventPayload{
			Type: types.EventCodeEdit,
			Data: json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)),
		}
	}
	w := doJSON(t, s, http.MethodPost, "/v1/sessions/"+session.ID+"/events/batch", BatchRequest{Events: events})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/sessions/"+session.ID+"/replay", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var replay types.Replay
	require.NoError(t, json.NewDecoder(w.Body).Decode(&replay))
	require.Len(t, replay.Events, 2001)
	for i, event := range replay.Events {
		assert.Equal(t, int64(i), event.SequenceNumber)
	}
}
