package storage

import (
	"errors"

	"github.com/scribehq/scribe/pkg/types"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when appending to a closed session.
	ErrSessionEnded = errors.New("session already ended")

	// ErrEmptyEventType is returned when an event carries no type.
	ErrEmptyEventType = errors.New("event type must not be empty")
)

// Store defines the interface for session and event-log storage.
// Implemented by the BoltDB-backed EventStore.
type Store interface {
	// Sessions
	CreateSession(session *types.Session) error
	GetSession(id string) (*types.Session, error)
	UpdateSession(session *types.Session) error
	ListSessions() ([]*types.Session, error)

	// Event log. The log is append-only: there is no update or
	// delete, corrections are new events.
	AppendEvent(sessionID string, pending *types.PendingEvent) (*types.Event, error)
	AppendBatch(sessionID string, pendings []*types.PendingEvent) ([]*types.Event, error)
	ReadEvents(sessionID string) ([]*types.Event, error)
	ReadEventsFrom(sessionID string, fromSeq int64, limit int) ([]*types.Event, error)
	CountEvents(sessionID string) (int64, error)

	// Utility
	Close() error
}
