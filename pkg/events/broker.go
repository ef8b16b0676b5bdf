package events

import (
	"sync"

	"github.com/scribehq/scribe/pkg/types"
)

// Subscriber is a channel that receives stored events for one session
type Subscriber chan *types.Event

// Broker fans stored events out to live watchers, keyed by session.
// It sits behind the append path: the manager publishes every event
// the store accepts, and replay viewers watching a session in progress
// subscribe here. Delivery is best-effort; a slow subscriber is
// skipped, never allowed to block an append.
type Broker struct {
	subscribers map[string]map[Subscriber]bool // session ID -> subscribers
	mu          sync.RWMutex
	eventCh     chan *types.Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[Subscriber]bool),
		eventCh:     make(chan *types.Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a subscription for one session's events
func (b *Broker) Subscribe(sessionID string) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[Subscriber]bool)
	}
	b.subscribers[sessionID][sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sessionID string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sessionID]
	if subs == nil || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}
	close(sub)
}

// Publish publishes a stored event to the session's subscribers
func (b *Broker) Publish(event *types.Event) {
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers[event.SessionID] {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers for a session
func (b *Broker) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}
