package timeline

import (
	"encoding/json"

	"github.com/scribehq/scribe/pkg/types"
)

// displayTypes maps internal event types to the stable external type
// names the replay viewer renders. The table includes legacy aliases
// kept for compatibility with logs recorded before a type was renamed.
// Types absent from the table pass through unchanged so the viewer
// degrades gracefully as the vocabulary grows.
var displayTypes = map[types.EventType]string{
	types.EventSessionStart:   "session_start",
	types.EventSessionEnd:     "session_end",
	types.EventCodeSnapshot:   "code_snapshot",
	types.EventCodeEdit:       "code_edit",
	types.EventCodeRun:        "code_run",
	types.EventChatUserMsg:    "user_message",
	types.EventChatAssistant:  "ai_message",
	types.EventChatChunk:      "ai_message",
	types.EventTerminalCmd:    "terminal_command",
	types.EventTerminalOutput: "terminal_output",
	types.EventTestRun:        "test_run",
	types.EventTestResult:     "test_result",
	types.EventEvalScore:      "evaluation",
	types.EventQuestionStart:  "question_start",
	types.EventQuestionEnd:    "question_end",
	types.EventFileWrite:      "file_write",
	types.EventFileOpen:       "file_open",

	// Legacy aliases from the pre-dotted vocabulary.
	"chat.ai_chunk":   "ai_message",
	"code.save":       "code_snapshot",
	"test.completed":  "test_result",
	"terminal.stdout": "terminal_output",
}

// DisplayType resolves an event type to its external display name,
// falling back to the type itself for unknown values.
func DisplayType(t types.EventType) string {
	if mapped, ok := displayTypes[t]; ok {
		return mapped
	}
	return string(t)
}

// BuildTimeline projects an already sequence-ordered event log into
// replay-ready entries. The input order is preserved.
func BuildTimeline(events []*types.Event) []types.TimelineEntry {
	entries := make([]types.TimelineEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, types.TimelineEntry{
			Type:           DisplayType(event.EventType),
			SequenceNumber: event.SequenceNumber,
			Timestamp:      event.Timestamp,
			Category:       event.Category,
			Checkpoint:     event.Checkpoint,
			QuestionIndex:  event.QuestionIndex,
			Data:           event.Data,
		})
	}
	return entries
}

// payload is the subset of event data the metrics pass reads. Fields
// are pointers where absence matters; everything else in the payload
// stays opaque.
type payload struct {
	InputTokens  int64    `json:"input_tokens"`
	OutputTokens int64    `json:"output_tokens"`
	Quality      *float64 `json:"quality"`
	Passed       *bool    `json:"passed"`
}

// ComputeMetrics derives aggregate session statistics in a single pass
// over the event log. Every ratio falls back to 0 when its denominator
// is 0; the function never divides by zero and never yields NaN.
func ComputeMetrics(events []*types.Event, sessionDurationSeconds float64) types.Metrics {
	m := types.Metrics{TotalEvents: len(events)}

	var (
		qualitySum   float64
		qualityCount int
		testResults  int
		testsPassed  int
	)

	for _, event := range events {
		var p payload
		if len(event.Data) > 0 {
			// Malformed payloads are skipped, not fatal: the raw
			// event is still counted and replayable.
			_ = json.Unmarshal(event.Data, &p)
		}

		switch event.Category {
		case types.CategoryChat:
			m.InteractionCount++
			m.InputTokens += p.InputTokens
			m.OutputTokens += p.OutputTokens
		case types.CategoryTest:
			if event.EventType == types.EventTestRun {
				m.TestRunCount++
			}
			if event.EventType == types.EventTestResult && p.Passed != nil {
				testResults++
				if *p.Passed {
					testsPassed++
				}
			}
		case types.CategoryCode:
			if event.EventType == types.EventCodeSnapshot {
				m.CodeSnapshotCount++
			}
		}

		if p.Quality != nil {
			qualitySum += *p.Quality
			qualityCount++
		}
	}

	m.TotalTokens = m.InputTokens + m.OutputTokens
	if qualityCount > 0 {
		m.AverageQuality = qualitySum / float64(qualityCount)
	}
	if testResults > 0 {
		m.TestPassRate = float64(testsPassed) / float64(testResults)
	}
	if minutes := sessionDurationSeconds / 60; minutes > 0 {
		m.SnapshotsPerMin = float64(m.CodeSnapshotCount) / minutes
		m.EventsPerMin = float64(m.TotalEvents) / minutes
	}
	return m
}
