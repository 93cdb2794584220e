package inspect

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recording = `
# a recorded run
{"type":"RUN_STARTED","thread_id":"th","run_id":"r1"}
{"type":"TEXT_MESSAGE_START","thread_id":"th","run_id":"r1","message_id":"m1","role":"assistant"}
{"type":"TEXT_MESSAGE_CONTENT","thread_id":"th","message_id":"m1","delta":"Hello "}
not json at all
{"type":"TEXT_MESSAGE_CONTENT","thread_id":"other","message_id":"m1","delta":"intruder"}
{"type":"TEXT_MESSAGE_CONTENT","thread_id":"th","message_id":"m1","delta":"world"}
{"type":"TOOL_CALL_START","thread_id":"th","tool_call_id":"t1","tool_name":"search","parent_message_id":"m1"}
{"type":"TOOL_CALL_ARGS","thread_id":"th","tool_call_id":"t1","args_delta":"{}"}
{"type":"TOOL_CALL_END","thread_id":"th","tool_call_id":"t1"}
{"type":"RUN_ERROR","thread_id":"th","run_id":"r1","error":"boom"}
`

func TestReduce(t *testing.T) {
	snap, err := Reduce(context.Background(), strings.NewReader(recording), conversation.Scope{Thread: "th"})
	require.NoError(t, err)

	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Hello world", snap.Messages[0].Content)
	assert.False(t, snap.Messages[0].IsStreaming)
	assert.Equal(t, conversation.RoleSystem, snap.Messages[1].Role)
	assert.Equal(t, "boom", snap.Run.LastError)
	require.Len(t, snap.ToolCalls, 1)
	assert.Equal(t, conversation.StatusWaitingApproval, snap.ToolCalls[0].Status)
}

func TestReduceAllThreads(t *testing.T) {
	snap, err := Reduce(context.Background(), strings.NewReader(recording), conversation.Scope{})
	require.NoError(t, err)
	require.NotEmpty(t, snap.Messages)
	assert.Equal(t, "Hello intruderworld", snap.Messages[0].Content)
}

func TestPrint(t *testing.T) {
	verbose = true
	t.Cleanup(func() { verbose = false })

	snap, err := Reduce(context.Background(), strings.NewReader(recording), conversation.Scope{Thread: "th"})
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(&buf, snap)
	out := buf.String()
	assert.Contains(t, out, "[agent] Hello world")
	assert.Contains(t, out, "tool t1 search [waiting_approval]")
	assert.Contains(t, out, "args: {}")
	assert.Contains(t, out, "last error: boom")
}
