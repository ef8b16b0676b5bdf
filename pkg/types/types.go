package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is a single immutable entry in a session's append-only log.
// SequenceNumber is assigned by the store at append time and is the
// sole ordering authority; Timestamp comes from the producing client
// and is used for display only.
type Event struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	SequenceNumber int64           `json:"sequence_number"`
	Timestamp      time.Time       `json:"timestamp"`
	EventType      EventType       `json:"event_type"`
	Category       Category        `json:"category"`
	Origin         Origin          `json:"origin,omitempty"`
	Checkpoint     bool            `json:"checkpoint"`
	QuestionIndex  *int            `json:"question_index,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// PendingEvent is a client-local event that has not yet been accepted
// by the store. It carries no sequence number; Retries counts failed
// delivery attempts for this specific event.
type PendingEvent struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	EventType     EventType       `json:"event_type"`
	Origin        Origin          `json:"origin,omitempty"`
	Checkpoint    bool            `json:"checkpoint"`
	QuestionIndex *int            `json:"question_index,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Retries       int             `json:"retries"`
}

// EventType is a dotted, hierarchical event tag (category.action).
// The set is open: new types may appear without a schema migration,
// so consumers must treat unknown values as valid.
type EventType string

const (
	EventSessionStart   EventType = "session.start"
	EventSessionEnd     EventType = "session.end"
	EventCodeSnapshot   EventType = "code.snapshot"
	EventCodeEdit       EventType = "code.edit"
	EventCodeRun        EventType = "code.run"
	EventChatUserMsg    EventType = "chat.user_message"
	EventChatAssistant  EventType = "chat.assistant_message"
	EventChatChunk      EventType = "chat.assistant_chunk"
	EventTerminalCmd    EventType = "terminal.command"
	EventTerminalOutput EventType = "terminal.output"
	EventTestRun        EventType = "test.run"
	EventTestResult     EventType = "test.result"
	EventEvalScore      EventType = "evaluation.score"
	EventQuestionStart  EventType = "question.start"
	EventQuestionEnd    EventType = "question.end"
	EventFileWrite      EventType = "file.write"
	EventFileOpen       EventType = "file.open"
)

// Category returns the coarse grouping derived from the type's first
// dotted segment ("code.snapshot" -> "code").
func (t EventType) Category() Category {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return Category(s[:i])
	}
	return Category(s)
}

// Category is the coarse event grouping used for partitioning replay
// and metrics.
type Category string

const (
	CategorySession    Category = "session"
	CategoryCode       Category = "code"
	CategoryChat       Category = "chat"
	CategoryTerminal   Category = "terminal"
	CategoryTest       Category = "test"
	CategoryEvaluation Category = "evaluation"
	CategoryQuestion   Category = "question"
	CategoryFile       Category = "file"
)

// Origin tags who triggered a server-side recorded event.
type Origin string

const (
	OriginUser  Origin = "user"
	OriginAgent Origin = "agent"
)

// Session is the metadata record for one assessment session. Event
// content lives in the event log, not here.
type Session struct {
	ID           string     `json:"id"`
	CandidateID  string     `json:"candidate_id"`
	AssessmentID string     `json:"assessment_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// Duration returns the session length. Open sessions are measured
// against the supplied now.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// TimelineEntry wraps one event with its replay-facing display type.
type TimelineEntry struct {
	Type           string          `json:"type"`
	SequenceNumber int64           `json:"sequence_number"`
	Timestamp      time.Time       `json:"timestamp"`
	Category       Category        `json:"category"`
	Checkpoint     bool            `json:"checkpoint"`
	QuestionIndex  *int            `json:"question_index,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Metrics holds the aggregate statistics derived from one pass over a
// session's event log. All ratios are defined to be 0 when their
// denominator is 0.
type Metrics struct {
	TotalEvents       int     `json:"total_events"`
	InteractionCount  int     `json:"interaction_count"`
	CodeSnapshotCount int     `json:"code_snapshot_count"`
	TestRunCount      int     `json:"test_run_count"`
	InputTokens       int64   `json:"input_tokens"`
	OutputTokens      int64   `json:"output_tokens"`
	TotalTokens       int64   `json:"total_tokens"`
	AverageQuality    float64 `json:"average_quality"`
	TestPassRate      float64 `json:"test_pass_rate"`
	SnapshotsPerMin   float64 `json:"snapshots_per_minute"`
	EventsPerMin      float64 `json:"events_per_minute"`
}

// Replay is the full payload served to the replay consumer: session
// metadata plus the ordered raw log and both derived views.
type Replay struct {
	Session  *Session        `json:"session"`
	Events   []*Event        `json:"events"`
	Timeline []TimelineEntry `json:"timeline"`
	Metrics  Metrics         `json:"metrics"`
}
