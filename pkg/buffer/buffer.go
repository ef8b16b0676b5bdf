package buffer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/types"
)

const (
	// DefaultFlushThreshold triggers an automatic flush once this many
	// events are queued.
	DefaultFlushThreshold = 50

	// DefaultFlushInterval is the periodic flush cadence.
	DefaultFlushInterval = 5 * time.Second

	// DefaultMaxRetries is how many failed delivery attempts an event
	// survives before it is dropped instead of retried again.
	DefaultMaxRetries = 3
)

// Ingestor delivers one batch of pending events for a session. Any
// error means the whole batch was not delivered; the buffer treats
// network errors, non-2xx responses, and malformed responses
// identically. Implemented by pkg/client.
type Ingestor interface {
	SubmitBatch(ctx context.Context, sessionID string, batch []*types.PendingEvent) error
}

// Options tunes a Buffer. Zero values fall back to the defaults above.
type Options struct {
	FlushThreshold int
	FlushInterval  time.Duration
	MaxRetries     int
}

func (o Options) withDefaults() Options {
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = DefaultFlushThreshold
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

// Buffer collects locally generated events and delivers them to the
// ingest endpoint in batches, surviving process restarts through its
// spool. Every queue mutation (add, successful flush, retry
// bookkeeping) is mirrored to the spool before it is observable, so a
// restarted process resumes with exactly the unsent queue.
//
// At most one flush is in flight per Buffer at any time. The guard is
// the explicit flushing flag, checked and set under the mutex before
// the network call begins; an overlapping Flush returns immediately
// rather than sending the same batch twice. Cross-buffer ordering
// (e.g. against server-originated events for the same session) is not
// guaranteed; within one buffer, submission order is preserved because
// only one flush runs at a time.
type Buffer struct {
	sessionID string
	client    Ingestor
	spool     *Spool
	opts      Options
	logger    zerolog.Logger

	mu       sync.Mutex
	queue    []*types.PendingEvent
	flushing bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Buffer for one session, rehydrates any queue the spool
// holds for that session, and starts the periodic flush timer.
func New(sessionID string, client Ingestor, spool *Spool, opts Options) (*Buffer, error) {
	queue, err := spool.Load(sessionID)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		sessionID: sessionID,
		client:    client,
		spool:     spool,
		opts:      opts.withDefaults(),
		logger:    log.WithSessionID(sessionID).With().Str("component", "buffer").Logger(),
		queue:     queue,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go b.run()
	return b, nil
}

// Add queues one event, assigning an ID and timestamp if absent, and
// mirrors the queue to the spool. Reaching the flush threshold kicks
// off an asynchronous flush.
func (b *Buffer) Add(event *types.PendingEvent) error {
	b.mu.Lock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.queue = append(b.queue, event)
	err := b.persistLocked()
	size := len(b.queue)
	b.mu.Unlock()
	if err != nil {
		return err
	}

	if size >= b.opts.FlushThreshold {
		go func() {
			if err := b.Flush(context.Background()); err != nil {
				b.logger.Warn().Err(err).Msg("threshold flush failed")
			}
		}()
	}
	return nil
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Flush sends the entire current queue as one batch. It is a no-op if
// a flush is already in flight or the queue is empty. On failure every
// event in the batch has its retry count incremented and stays queued;
// events that have already failed MaxRetries times are dropped before
// the send instead of being retried again.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.flushing {
		b.mu.Unlock()
		return nil
	}

	b.dropExhaustedLocked()
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return nil
	}

	batch := make([]*types.PendingEvent, len(b.queue))
	copy(batch, b.queue)
	b.flushing = true
	b.mu.Unlock()

	err := b.client.SubmitBatch(ctx, b.sessionID, batch)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushing = false

	if err != nil {
		sent := idSet(batch)
		for _, event := range b.queue {
			if sent[event.ID] {
				event.Retries++
			}
		}
		if perr := b.persistLocked(); perr != nil {
			b.logger.Error().Err(perr).Msg("failed to persist retry state")
		}
		b.logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("batch delivery failed")
		return err
	}

	// Remove exactly the sent events; anything added while the flush
	// was in flight stays queued for the next one.
	sent := idSet(batch)
	remaining := b.queue[:0]
	for _, event := range b.queue {
		if !sent[event.ID] {
			remaining = append(remaining, event)
		}
	}
	b.queue = remaining
	if perr := b.persistLocked(); perr != nil {
		b.logger.Error().Err(perr).Msg("failed to clear spool after flush")
	}
	b.logger.Debug().Int("batch_size", len(batch)).Msg("batch delivered")
	return nil
}

// Destroy performs a final best-effort flush and stops the periodic
// timer. The spool stays open; it may be shared by other sessions.
func (b *Buffer) Destroy(ctx context.Context) error {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
	return b.Flush(ctx)
}

func (b *Buffer) run() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if b.Len() == 0 {
				continue
			}
			if err := b.Flush(context.Background()); err != nil {
				b.logger.Warn().Err(err).Msg("periodic flush failed")
			}
		case <-b.stopCh:
			return
		}
	}
}

// dropExhaustedLocked removes events that already failed MaxRetries
// delivery attempts. Drops are logged but otherwise silent: losing an
// event beats blocking the candidate's session forever. Caller holds
// the mutex.
func (b *Buffer) dropExhaustedLocked() {
	kept := b.queue[:0]
	dropped := 0
	for _, event := range b.queue {
		if event.Retries >= b.opts.MaxRetries {
			b.logger.Warn().
				Str("event_id", event.ID).
				Str("event_type", string(event.EventType)).
				Int("retries", event.Retries).
				Msg("dropping event after retry limit")
			dropped++
			continue
		}
		kept = append(kept, event)
	}
	if dropped == 0 {
		return
	}
	b.queue = kept
	if err := b.persistLocked(); err != nil {
		b.logger.Error().Err(err).Msg("failed to persist after drop")
	}
}

func (b *Buffer) persistLocked() error {
	return b.spool.Save(b.sessionID, b.queue)
}

func idSet(batch []*types.PendingEvent) map[string]bool {
	ids := make(map[string]bool, len(batch))
	for _, event := range batch {
		ids[event.ID] = true
	}
	return ids
}
