package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scribehq/scribe/pkg/api"
	"github.com/scribehq/scribe/pkg/types"
)

// Client talks to the Scribe HTTP API. It implements buffer.Ingestor,
// so a Buffer can deliver its batches through it directly.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given base URL. An empty token
// sends no Authorization header.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// StartSession begins a new recording session.
func (c *Client) StartSession(ctx context.Context, candidateID, assessmentID string) (*types.Session, error) {
	var session types.Session
	err := c.do(ctx, http.MethodPost, "/v1/sessions", api.StartSessionRequest{
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// EndSession marks a session ended.
func (c *Client) EndSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var session types.Session
	err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/end", nil, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches session metadata.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var session types.Session
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID, nil, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions lists all sessions.
func (c *Client) ListSessions(ctx context.Context) ([]*types.Session, error) {
	var resp api.SessionListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// RecordEvent appends a single event on behalf of a server-side
// recorder.
func (c *Client) RecordEvent(ctx context.Context, sessionID string, payload api.EventPayload) (*types.Event, error) {
	var event types.Event
	err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/events", payload, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SubmitBatch delivers one buffered batch. Any transport error,
// non-2xx status, or undecodable response means the batch was not
// delivered; the buffer treats all three identically.
func (c *Client) SubmitBatch(ctx context.Context, sessionID string, batch []*types.PendingEvent) error {
	payloads := make([]api.EventPayload, 0, len(batch))
	for _, p := range batch {
		payloads = append(payloads, api.EventPayload{
			ID:            p.ID,
			Type:          p.EventType,
			Origin:        p.Origin,
			Timestamp:     p.Timestamp,
			Checkpoint:    p.Checkpoint,
			QuestionIndex: p.QuestionIndex,
			Data:          p.Data,
		})
	}

	var resp api.BatchResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/events/batch", api.BatchRequest{Events: payloads}, &resp); err != nil {
		return err
	}
	if resp.Count != len(batch) {
		return fmt.Errorf("server accepted %d of %d events", resp.Count, len(batch))
	}
	return nil
}

// Replay fetches the full replay payload for a session.
func (c *Client) Replay(ctx context.Context, sessionID string) (*types.Replay, error) {
	var replay types.Replay
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID+"/replay", nil, &replay)
	if err != nil {
		return nil, err
	}
	return &replay, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if derr := json.NewDecoder(resp.Body).Decode(&apiErr); derr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
