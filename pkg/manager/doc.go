/*
Package manager wires the event store, the live broker, and the
timeline builder behind the operations the API exposes: session
lifecycle, single and batch appends, and replay assembly.

The manager owns the write-path rules the store does not enforce:
appends require a known, still-open session; session and question
boundary events are always checkpoints; every accepted event is
published to live watchers after it is durable.
*/
package manager
