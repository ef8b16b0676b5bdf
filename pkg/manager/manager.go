package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scribehq/scribe/pkg/events"
	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/metrics"
	"github.com/scribehq/scribe/pkg/storage"
	"github.com/scribehq/scribe/pkg/timeline"
	"github.com/scribehq/scribe/pkg/types"
)

// Manager wires the event store, the live broker, and the timeline
// builder into the recording and replay operations the API exposes.
type Manager struct {
	store  storage.Store
	broker *events.Broker
	logger zerolog.Logger
}

// Config holds configuration for creating a Manager
type Config struct {
	DataDir string
}

// NewManager creates a Manager backed by a BoltDB store under DataDir.
func NewManager(cfg *Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewEventStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()

	return &Manager{
		store:  store,
		broker: broker,
		logger: log.WithComponent("manager"),
	}, nil
}

// NewManagerWithStore creates a Manager over an existing store.
func NewManagerWithStore(store storage.Store) *Manager {
	broker := events.NewBroker()
	broker.Start()
	return &Manager{
		store:  store,
		broker: broker,
		logger: log.WithComponent("manager"),
	}
}

// Shutdown stops the broker and closes the store.
func (m *Manager) Shutdown() error {
	m.broker.Stop()
	return m.store.Close()
}

// Store exposes the underlying store for read-side collaborators
// (metrics collector).
func (m *Manager) Store() storage.Store {
	return m.store
}

// StartSession registers a new session and records its opening
// checkpoint event.
func (m *Manager) StartSession(candidateID, assessmentID string) (*types.Session, error) {
	session := &types.Session{
		ID:           uuid.New().String(),
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
		StartedAt:    time.Now().UTC(),
	}
	if err := m.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	data, _ := json.Marshal(map[string]string{
		"candidate_id":  candidateID,
		"assessment_id": assessmentID,
	})
	if _, err := m.RecordEvent(session.ID, types.EventSessionStart, types.OriginUser, data); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("session_id", session.ID).
		Str("candidate_id", candidateID).
		Msg("session started")
	return session, nil
}

// EndSession records the closing checkpoint and marks the session
// ended. Ending an already-ended session is an error.
func (m *Manager) EndSession(sessionID string) (*types.Session, error) {
	session, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, fmt.Errorf("%w: %s", storage.ErrSessionEnded, sessionID)
	}

	if _, err := m.RecordEvent(sessionID, types.EventSessionEnd, types.OriginUser, nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.EndedAt = &now
	if err := m.store.UpdateSession(session); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("session_id", sessionID).
		Dur("duration", session.Duration(now)).
		Msg("session ended")
	return session, nil
}

// GetSession returns session metadata.
func (m *Manager) GetSession(sessionID string) (*types.Session, error) {
	return m.store.GetSession(sessionID)
}

// ListSessions returns all known sessions.
func (m *Manager) ListSessions() ([]*types.Session, error) {
	return m.store.ListSessions()
}

// RecordEvent is the append interface for server-side recorders (test
// runner, chat handler, terminal handler, file-write handler). It
// resolves the category and checkpoint flag, appends, and publishes
// the stored event to live watchers.
func (m *Manager) RecordEvent(sessionID string, eventType types.EventType, origin types.Origin, data json.RawMessage) (*types.Event, error) {
	if err := m.checkWritable(sessionID); err != nil {
		return nil, err
	}

	stored, err := m.store.AppendEvent(sessionID, &types.PendingEvent{
		EventType:  eventType,
		Origin:     origin,
		Checkpoint: isCheckpointType(eventType),
		Data:       data,
	})
	if err != nil {
		return nil, err
	}

	m.published(stored)
	return stored, nil
}

// RecordBatch appends a client-submitted batch atomically, preserving
// batch order as sequence order, and publishes every stored event.
func (m *Manager) RecordBatch(sessionID string, pendings []*types.PendingEvent) ([]*types.Event, error) {
	if len(pendings) == 0 {
		return nil, nil
	}
	if err := m.checkWritable(sessionID); err != nil {
		return nil, err
	}

	for _, p := range pendings {
		if isCheckpointType(p.EventType) {
			p.Checkpoint = true
		}
	}

	stored, err := m.store.AppendBatch(sessionID, pendings)
	if err != nil {
		return nil, err
	}

	metrics.BatchesIngestedTotal.Inc()
	metrics.BatchSize.Observe(float64(len(stored)))
	for _, event := range stored {
		m.published(event)
	}
	return stored, nil
}

// Replay returns the session's full ordered log plus both derived
// views. A store read failure fails the whole replay; a partial
// timeline is never returned.
func (m *Manager) Replay(sessionID string) (*types.Replay, error) {
	session, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	eventLog, err := m.store.ReadEvents(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	duration := session.Duration(time.Now().UTC()).Seconds()
	return &types.Replay{
		Session:  session,
		Events:   eventLog,
		Timeline: timeline.BuildTimeline(eventLog),
		Metrics:  timeline.ComputeMetrics(eventLog, duration),
	}, nil
}

// Watch subscribes to a session's live event feed. The caller must
// Unwatch with the same subscriber when done.
func (m *Manager) Watch(sessionID string) events.Subscriber {
	return m.broker.Subscribe(sessionID)
}

// Unwatch removes a live subscription.
func (m *Manager) Unwatch(sessionID string, sub events.Subscriber) {
	m.broker.Unsubscribe(sessionID, sub)
}

func (m *Manager) checkWritable(sessionID string) error {
	session, err := m.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	if session.Ended() {
		return fmt.Errorf("%w: %s", storage.ErrSessionEnded, sessionID)
	}
	return nil
}

func (m *Manager) published(event *types.Event) {
	metrics.EventsAppendedTotal.WithLabelValues(string(event.Category)).Inc()
	m.broker.Publish(event)
}

// isCheckpointType reports whether an event type is always a valid
// replay seek target, regardless of what the caller set.
func isCheckpointType(t types.EventType) bool {
	switch t {
	case types.EventSessionStart, types.EventSessionEnd,
		types.EventQuestionStart, types.EventQuestionEnd:
		return true
	}
	return false
}
