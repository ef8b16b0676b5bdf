/*
Package types defines the core data structures used throughout Scribe.

This package contains the fundamental types of Scribe's domain model:
the append-only event log entries, client-side pending events, session
metadata, and the derived replay views (timeline entries and metrics).
These types are used by all other packages for persistence, API
communication, and replay reconstruction.

# Core Types

Event Log:
  - Event: Immutable entry in a session's append-only log
  - PendingEvent: Client-local event awaiting delivery
  - EventType: Dotted, hierarchical tag (open set, e.g. "code.snapshot")
  - Category: Coarse grouping derived from the type's first segment
  - Origin: Whether a recorded event was user- or agent-triggered

Sessions:
  - Session: Metadata for one assessment session (candidate, start/end)

Derived Views (never stored):
  - TimelineEntry: Display-typed projection of one event
  - Metrics: Aggregate statistics over a session's full log
  - Replay: Session + raw log + timeline + metrics in one payload

# Ordering

SequenceNumber is the sole ordering authority for events. It is
assigned by the store at append time, starts at 0 per session, and is
strictly increasing. Event timestamps come from client clocks and are
for display only.

# Immutability

Events are never updated or deleted once appended. Corrections are
modeled as new events. EventType values are stable identifiers:
changing the meaning of one requires introducing a new type.

# Extensibility

EventType is a plain string newtype rather than a closed enum so that
new event types can be introduced without recompiling or versioning
consumers. The timeline builder (pkg/timeline) maps known types to
display names and passes unknown types through unchanged.

# Integration Points

This package integrates with:

  - pkg/storage: Persists events and sessions to BoltDB
  - pkg/buffer: Spools PendingEvents until delivery is confirmed
  - pkg/timeline: Builds TimelineEntry and Metrics views
  - pkg/manager: Orchestrates recording and replay
  - pkg/api: JSON request/response bodies
*/
package types
