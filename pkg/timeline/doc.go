/*
Package timeline turns a raw, sequence-ordered event log into the two
derived views the replay consumer needs: a display-typed timeline and
aggregate session metrics.

Both functions are pure, synchronous, single-pass computations over an
already-materialized slice. They are idempotent given the same input
and safe to run repeatedly; neither is ever persisted.

The event type vocabulary is open. BuildTimeline maps known types
through a fixed table (including legacy aliases) and passes unknown
types through unchanged, so introducing a new event type never breaks
an existing replay. ComputeMetrics defines every ratio as 0 when its
denominator is 0.
*/
package timeline
