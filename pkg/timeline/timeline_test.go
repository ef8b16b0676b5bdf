package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scribehq/scribe/pkg/types"
)

func event(seq int64, eventType types.EventType, data string) *types.Event {
	e := &types.Event{
		ID:             "id",
		SessionID:      "sess-1",
		SequenceNumber: seq,
		Timestamp:      time.Now().UTC(),
		EventType:      eventType,
		Category:       eventType.Category(),
	}
	if data != "" {
		e.Data = json.RawMessage(data)
	}
	return e
}

// TestBuildTimelineMapsKnownTypes covers the display mapping,
// including the chunk and legacy aliases that collapse onto
// ai_message.
func TestBuildTimelineMapsKnownTypes(t *testing.T) {
	tests := []struct {
		eventType types.EventType
		want      string
	}{
		{types.EventCodeSnapshot, "code_snapshot"},
		{types.EventChatUserMsg, "user_message"},
		{types.EventChatAssistant, "ai_message"},
		{types.EventChatChunk, "ai_message"},
		{types.EventTestResult, "test_result"},
		{"chat.ai_chunk", "ai_message"},
		{"code.save", "code_snapshot"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			entries := BuildTimeline([]*types.Event{event(0, tt.eventType, "")})
			assert.Equal(t, tt.want, entries[0].Type)
		})
	}
}

// TestBuildTimelineUnknownTypePassesThrough: unknown types come out
// unchanged instead of erroring or being dropped.
func TestBuildTimelineUnknownTypePassesThrough(t *testing.T) {
	entries := BuildTimeline([]*types.Event{event(0, "whiteboard.stroke", "")})
	assert.Len(t, entries, 1)
	assert.Equal(t, "whiteboard.stroke", entries[0].Type)
}

// TestBuildTimelinePreservesOrder: input order is output order.
func TestBuildTimelinePreservesOrder(t *testing.T) {
	var log []*types.Event
	for i := int64(0); i < 20; i++ {
		log = append(log, event(i, types.EventCodeEdit, ""))
	}

	entries := BuildTimeline(log)
	for i, entry := range entries {
		assert.Equal(t, int64(i), entry.SequenceNumber)
	}
}

// TestBuildTimelineCarriesEventFields verifies the projection keeps
// the replay-relevant fields.
func TestBuildTimelineCarriesEventFields(t *testing.T) {
	q := 2
	e := event(5, types.EventQuestionStart, `{"title":"q3"}`)
	e.Checkpoint = true
	e.QuestionIndex = &q

	entries := BuildTimeline([]*types.Event{e})
	entry := entries[0]
	assert.True(t, entry.Checkpoint)
	assert.Equal(t, &q, entry.QuestionIndex)
	assert.Equal(t, types.CategoryQuestion, entry.Category)
	assert.JSONEq(t, `{"title":"q3"}`, string(entry.Data))
}

// TestComputeMetricsEmpty: all-zero metrics, no panic, no NaN.
func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(nil, 0)
	assert.Equal(t, types.Metrics{}, m)
}

// TestComputeMetricsPassRate: one passed and one failed result is
// exactly 0.5.
func TestComputeMetricsPassRate(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventTestResult, `{"name":"a","passed":true}`),
		event(1, types.EventTestResult, `{"name":"b","passed":false}`),
	}
	m := ComputeMetrics(log, 60)
	assert.Equal(t, 0.5, m.TestPassRate)
}

// TestComputeMetricsTokensAndInteractions sums chat token counts.
func TestComputeMetricsTokensAndInteractions(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventChatUserMsg, `{"input_tokens":12}`),
		event(1, types.EventChatAssistant, `{"output_tokens":240}`),
		event(2, types.EventChatAssistant, `{"output_tokens":60}`),
		event(3, types.EventCodeSnapshot, `{"hash":"abc"}`),
	}
	m := ComputeMetrics(log, 120)

	assert.Equal(t, 4, m.TotalEvents)
	assert.Equal(t, 3, m.InteractionCount)
	assert.Equal(t, int64(12), m.InputTokens)
	assert.Equal(t, int64(300), m.OutputTokens)
	assert.Equal(t, int64(312), m.TotalTokens)
	assert.Equal(t, 1, m.CodeSnapshotCount)
}

// TestComputeMetricsQualityAverage averages only present scores.
func TestComputeMetricsQualityAverage(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventEvalScore, `{"quality":0.8}`),
		event(1, types.EventEvalScore, `{"quality":0.4}`),
		event(2, types.EventChatUserMsg, `{"text":"no score here"}`),
	}
	m := ComputeMetrics(log, 60)
	assert.InDelta(t, 0.6, m.AverageQuality, 1e-9)
}

// TestComputeMetricsRates checks the per-minute ratios.
func TestComputeMetricsRates(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventCodeSnapshot, ""),
		event(1, types.EventCodeSnapshot, ""),
		event(2, types.EventCodeSnapshot, ""),
		event(3, types.EventTerminalCmd, ""),
	}
	m := ComputeMetrics(log, 120) // 2 minutes

	assert.InDelta(t, 1.5, m.SnapshotsPerMin, 1e-9)
	assert.InDelta(t, 2.0, m.EventsPerMin, 1e-9)
}

// TestComputeMetricsZeroDuration: rates stay 0 instead of dividing by
// zero.
func TestComputeMetricsZeroDuration(t *testing.T) {
	log := []*types.Event{event(0, types.EventCodeSnapshot, "")}
	m := ComputeMetrics(log, 0)

	assert.Zero(t, m.SnapshotsPerMin)
	assert.Zero(t, m.EventsPerMin)
}

// TestComputeMetricsMalformedPayload: bad JSON is skipped, the event
// still counts.
func TestComputeMetricsMalformedPayload(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventChatUserMsg, `{not json`),
		event(1, types.EventTestResult, `{"passed":true}`),
	}
	m := ComputeMetrics(log, 60)

	assert.Equal(t, 2, m.TotalEvents)
	assert.Equal(t, 1, m.InteractionCount)
	assert.Equal(t, 1.0, m.TestPassRate)
}

// TestComputeMetricsTestRunCount counts runs separately from results.
func TestComputeMetricsTestRunCount(t *testing.T) {
	log := []*types.Event{
		event(0, types.EventTestRun, ""),
		event(1, types.EventTestResult, `{"passed":true}`),
		event(2, types.EventTestRun, ""),
		event(3, types.EventTestResult, `{"passed":true}`),
	}
	m := ComputeMetrics(log, 60)

	assert.Equal(t, 2, m.TestRunCount)
	assert.Equal(t, 1.0, m.TestPassRate)
}
