package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/scribehq/scribe/pkg/types"
)

var (
	// Bucket names
	bucketSessions = []byte("sessions")
	bucketEvents   = []byte("events") // one nested bucket per session
)

// EventStore implements Store using BoltDB. Each session's events live
// in a nested bucket keyed by the session ID; within that bucket the
// key is the 8-byte big-endian sequence number, so a cursor scan yields
// events in sequence order.
//
// BoltDB allows a single write transaction at a time, which is exactly
// the serialization the sequence assignment needs: the read-max,
// insert-at-max+1 step always runs inside one Update transaction, so
// two concurrent appenders can never observe the same maximum.
type EventStore struct {
	db *bolt.DB
}

// NewEventStore opens (or creates) the store under dataDir.
func NewEventStore(dataDir string) (*EventStore, error) {
	dbPath := filepath.Join(dataDir, "scribe.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSessions, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &EventStore{db: db}, nil
}

// Close closes the database
func (s *EventStore) Close() error {
	return s.db.Close()
}

// Session operations

func (s *EventStore) CreateSession(session *types.Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		return b.Put([]byte(session.ID), data)
	})
}

func (s *EventStore) GetSession(id string) (*types.Session, error) {
	var session types.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return json.Unmarshal(data, &session)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *EventStore) UpdateSession(session *types.Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b.Get([]byte(session.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, session.ID)
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		return b.Put([]byte(session.ID), data)
	})
}

func (s *EventStore) ListSessions() ([]*types.Session, error) {
	var sessions []*types.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		return b.ForEach(func(k, v []byte) error {
			var session types.Session
			if err := json.Unmarshal(v, &session); err != nil {
				return err
			}
			sessions = append(sessions, &session)
			return nil
		})
	})
	return sessions, err
}

// Event log operations

// AppendEvent assigns the next sequence number for the session and
// persists the event. The returned record is the stored form,
// including the assigned sequence number.
func (s *EventStore) AppendEvent(sessionID string, pending *types.PendingEvent) (*types.Event, error) {
	events, err := s.AppendBatch(sessionID, []*types.PendingEvent{pending})
	if err != nil {
		return nil, err
	}
	return events[0], nil
}

// AppendBatch appends all events in order inside a single write
// transaction: either every event is durably stored with consecutive
// sequence numbers, or none are. Callers retry the identical batch on
// failure; the store never rejects on duplicate content.
func (s *EventStore) AppendBatch(sessionID string, pendings []*types.PendingEvent) ([]*types.Event, error) {
	if len(pendings) == 0 {
		return nil, nil
	}
	for _, p := range pendings {
		if p.EventType == "" {
			return nil, ErrEmptyEventType
		}
	}

	stored := make([]*types.Event, 0, len(pendings))
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketEvents).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create session log: %w", err)
		}

		seq := nextSequence(b)
		for i, p := range pendings {
			event := materialize(sessionID, p, seq+int64(i))
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if err := b.Put(sequenceKey(event.SequenceNumber), data); err != nil {
				return err
			}
			stored = append(stored, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ReadEvents returns every event for a session in ascending sequence
// order. A missing session bucket is an empty log, not an error.
func (s *EventStore) ReadEvents(sessionID string) ([]*types.Event, error) {
	return s.ReadEventsFrom(sessionID, 0, 0)
}

// ReadEventsFrom returns up to limit events starting at fromSeq
// (limit <= 0 means no limit). This is the cursor primitive a paging
// caller would use; ReadEvents is a single scan over it.
func (s *EventStore) ReadEventsFrom(sessionID string, fromSeq int64, limit int) ([]*types.Event, error) {
	var events []*types.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(sequenceKey(fromSeq)); k != nil; k, v = c.Next() {
			var event types.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("corrupt event at seq %d: %w", decodeSequence(k), err)
			}
			events = append(events, &event)
			if limit > 0 && len(events) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents returns the number of events stored for a session.
func (s *EventStore) CountEvents(sessionID string) (int64, error) {
	var count int64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		count = int64(b.Stats().KeyN)
		return nil
	})
	return count, err
}

// materialize fills in the server-assigned fields of a pending event.
func materialize(sessionID string, p *types.PendingEvent, seq int64) *types.Event {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &types.Event{
		ID:             id,
		SessionID:      sessionID,
		SequenceNumber: seq,
		Timestamp:      ts,
		EventType:      p.EventType,
		Category:       p.EventType.Category(),
		Origin:         p.Origin,
		Checkpoint:     p.Checkpoint,
		QuestionIndex:  p.QuestionIndex,
		Data:           p.Data,
	}
}

// nextSequence returns the sequence number the next event in the
// bucket should receive: last key + 1, or 0 for an empty log. Must be
// called inside a write transaction.
func nextSequence(b *bolt.Bucket) int64 {
	k, _ := b.Cursor().Last()
	if k == nil {
		return 0
	}
	return decodeSequence(k) + 1
}

func sequenceKey(seq int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}

func decodeSequence(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key))
}
