package api

import (
	"encoding/json"
	"time"

	"github.com/scribehq/scribe/pkg/types"
)

// Wire types for the JSON API. Timestamps serialize as ISO-8601
// (RFC 3339) strings. These are shared with pkg/client so both sides
// of the ingest boundary agree on field names.

// StartSessionRequest begins a new recording session.
type StartSessionRequest struct {
	CandidateID  string `json:"candidate_id"`
	AssessmentID string `json:"assessment_id,omitempty"`
}

// EventPayload is one event as submitted by a recorder. Type is the
// dotted internal event type; Data is opaque to this subsystem.
type EventPayload struct {
	ID            string          `json:"id,omitempty"`
	Type          types.EventType `json:"type"`
	Origin        types.Origin    `json:"origin,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Checkpoint    bool            `json:"checkpoint,omitempty"`
	QuestionIndex *int            `json:"question_index,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Pending converts the wire form to the storage form.
func (p EventPayload) Pending() *types.PendingEvent {
	return &types.PendingEvent{
		ID:            p.ID,
		Timestamp:     p.Timestamp,
		EventType:     p.Type,
		Origin:        p.Origin,
		Checkpoint:    p.Checkpoint,
		QuestionIndex: p.QuestionIndex,
		Data:          p.Data,
	}
}

func toPendings(payloads []EventPayload) []*types.PendingEvent {
	pendings := make([]*types.PendingEvent, 0, len(payloads))
	for _, p := range payloads {
		pendings = append(pendings, p.Pending())
	}
	return pendings
}

// BatchRequest is the body of the batch-ingest endpoint.
type BatchRequest struct {
	Events []EventPayload `json:"events"`
}

// BatchResponse returns the stored events with their assigned
// sequence numbers.
type BatchResponse struct {
	Events []*types.Event `json:"events"`
	Count  int            `json:"count"`
}

// SessionListResponse wraps the session listing.
type SessionListResponse struct {
	Sessions []*types.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
