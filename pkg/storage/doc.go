/*
Package storage provides the durable, append-only event log and session
metadata store, backed by BoltDB.

# Layout

One BoltDB file (scribe.db) with two top-level buckets:

	sessions                      session ID -> JSON session metadata
	events
	  └── <session ID>            nested bucket per session
	        └── <seq (8B BE)>     big-endian sequence number -> JSON event

Keying events by their big-endian sequence number means a plain cursor
scan returns them in sequence order with no sorting step, and the last
key of the bucket is always the current maximum sequence number.

# Sequence Assignment

Sequence numbers start at 0 per session, are strictly increasing, and
are assigned only here, never by clients. Assignment is the read-max,
insert-at-max+1 step executed inside a single BoltDB write transaction.
BoltDB admits one write transaction at a time, so two appends racing on
the same session are serialized by the database itself: both can never
observe the same maximum. Sessions are independent; appends to
different sessions need no coordination beyond that.

# Batch Atomicity

AppendBatch writes every event of the batch in one transaction. Either
all events become durable, with consecutive sequence numbers in input
order, or none do, so a caller can always retry the identical batch
after a failure without risking a partially visible batch.

# Append-Only

There is no update or delete operation on the event log. Corrections
are modeled as new events. Session metadata (sessions bucket) is the
only mutable state, and only its end timestamp changes in practice.
*/
package storage
