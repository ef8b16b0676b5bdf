package buffer

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/scribehq/scribe/pkg/types"
)

var bucketPending = []byte("pending")

// Spool is the local durable mirror of a buffer's unsent queue. It is
// a small BoltDB file holding one JSON-encoded queue per session ID,
// so concurrent sessions on the same machine never collide and a
// restarted process rehydrates only its own session's events.
type Spool struct {
	db *bolt.DB
}

// OpenSpool opens (or creates) the spool file at path.
func OpenSpool(path string) (*Spool, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open spool: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPending)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Spool{db: db}, nil
}

// Close closes the spool file.
func (s *Spool) Close() error {
	return s.db.Close()
}

// Save overwrites the persisted queue for a session. An empty queue
// removes the key entirely.
func (s *Spool) Save(sessionID string, queue []*types.PendingEvent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		if len(queue) == 0 {
			return b.Delete([]byte(sessionID))
		}
		data, err := json.Marshal(queue)
		if err != nil {
			return err
		}
		return b.Put([]byte(sessionID), data)
	})
}

// Load returns the persisted queue for a session, or nil when none
// was saved.
func (s *Spool) Load(sessionID string) ([]*types.PendingEvent, error) {
	var queue []*types.PendingEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPending).Get([]byte(sessionID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &queue)
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}
