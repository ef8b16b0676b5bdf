/*
Package events provides an in-memory broker for live session watching.

The events package implements a lightweight pub/sub bus keyed by
session ID. The manager publishes every event the store accepts; the
API's watch endpoint subscribes on behalf of replay viewers following a
session in progress.

# Delivery Semantics

Publish is non-blocking: events flow through a buffered channel
(100 events) into a single broadcast loop, and each subscriber gets its
own buffered channel (50 events). A subscriber that falls behind has
events skipped rather than stalling the append path. The durable event
log in pkg/storage is the source of truth; this broker is a live view
only and makes no delivery guarantees.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe(sessionID)
	defer broker.Unsubscribe(sessionID, sub)

	for event := range sub {
		// stream to the watcher
	}
*/
package events
