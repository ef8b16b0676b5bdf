/*
Package buffer implements the client-side durable event buffer: the
component that makes event delivery resilient to network failure and
process restarts on the recording side.

# Lifecycle

Events enter through Add, which assigns missing IDs/timestamps and
mirrors the queue to the spool (a small BoltDB file keyed per session).
Delivery happens in batches, triggered three ways:

  - size: the queue reaching the flush threshold (default 50 events)
  - time: a periodic ticker (default every 5 seconds)
  - teardown: Destroy performs one final best-effort flush

A batch that the server accepts is removed from both the in-memory
queue and the spool. A batch that fails (network error, non-2xx, or a
malformed response) has every event's retry count incremented and
stays queued. An event that has failed the maximum number of attempts
(default 3) is dropped with a warn-level log instead of being retried
again, bounding queue growth under a permanently failing event.

# Single Flush In Flight

Only one flush may be in flight per Buffer. The guard is an explicit
boolean checked and set under the buffer mutex before the network call
starts; an overlapping Flush call returns immediately. This is what
prevents a timer-triggered flush racing a manual one from sending the
same batch twice.

# Restart Recovery

The constructor rehydrates the queue from the spool under the buffer's
session ID, so a restart resumes exactly the unsent events of that
session and no other's.
*/
package buffer
