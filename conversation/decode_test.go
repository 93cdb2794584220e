package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, ev Event)
	}{
		{
			name:  "message content",
			frame: `{"type":"TEXT_MESSAGE_CONTENT","thread_id":"th","run_id":"r1","message_id":"m1","delta":"Hel"}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(*TextMessageContentEvent)
				require.True(t, ok)
				assert.Equal(t, MessageId("m1"), e.MessageId)
				assert.Equal(t, "Hel", e.Delta)
				assert.Equal(t, ThreadId("th"), e.ThreadId)
				assert.Equal(t, RunId("r1"), e.RunKey())
			},
		},
		{
			name:  "task id stands in for run id",
			frame: `{"type":"RUN_STARTED","task_id":"task-1"}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, RunId("task-1"), Header(ev).RunKey())
			},
		},
		{
			name:  "tool result object is kept as raw json",
			frame: `{"type":"TOOL_CALL_RESULT","tool_call_id":"t1","result":{"hits":3}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(*ToolCallResultEvent)
				require.True(t, ok)
				assert.JSONEq(t, `{"hits":3}`, e.Result)
				assert.False(t, e.Failed())
			},
		},
		{
			name:  "tool result failure",
			frame: `{"type":"TOOL_CALL_RESULT","tool_call_id":"t1","error":"boom"}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(*ToolCallResultEvent)
				assert.True(t, e.Failed())
				assert.Equal(t, "boom", e.Error)
			},
		},
		{
			name:  "tool args accepts delta alias",
			frame: `{"type":"TOOL_CALL_ARGS","tool_call_id":"t1","delta":"{\"q\":"}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, `{"q":`, ev.(*ToolCallArgsEvent).ArgsDelta)
			},
		},
		{
			name:  "custom thinking at top level",
			frame: `{"type":"CUSTOM","customType":"THINKING_CONTENT","thinking_id":"k1","run_id":"r1","delta":"hmm"}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(*ThinkingContentEvent)
				require.True(t, ok)
				assert.Equal(t, ThinkingKey{ThinkingId: "k1", RunId: "r1"}, e.Key())
				assert.Equal(t, "hmm", e.Delta)
				assert.Equal(t, EventThinkingContent, e.Type)
			},
		},
		{
			name:  "custom thinking nested under value",
			frame: `{"type":"CUSTOM","customType":"THINKING_START","value":{"thinking_id":"k1","run_id":"r2"}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(*ThinkingStartEvent)
				require.True(t, ok)
				assert.Equal(t, ThinkingKey{ThinkingId: "k1", RunId: "r2"}, e.Key())
			},
		},
		{
			name:  "other custom types stay custom",
			frame: `{"type":"CUSTOM","customType":"progress","value":{"pct":40}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(*CustomEvent)
				require.True(t, ok)
				assert.Equal(t, "progress", e.CustomType)
				assert.JSONEq(t, `{"pct":40}`, string(e.Value))
			},
		},
		{
			name:  "unknown type",
			frame: `{"type":"STATE_DELTA","thread_id":"th"}`,
			check: func(t *testing.T, ev Event) {
				_, ok := ev.(*UnknownEvent)
				assert.True(t, ok)
			},
		},
		{
			name:  "run error message alias",
			frame: `{"type":"RUN_ERROR","message":"rate limited"}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "rate limited", ev.(*RunErrorEvent).Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	for _, frame := range []string{
		`{"type":"TEXT_MESSAGE_CONTENT",`,
		`[1,2,3]`,
		`{"delta":"no type"}`,
		``,
	} {
		_, err := Decode([]byte(frame))
		require.ErrorIs(t, err, ErrMalformedFrame, frame)
	}
}
