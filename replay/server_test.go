package replay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ryanreadbooks/tokkichat/backend/a2a"
	"github.com/ryanreadbooks/tokkichat/channel"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/sse"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/ws"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamPath = "/agents/{agent_id}/threads/{thread_id}/events"

func TestDefaultScript(t *testing.T) {
	s, err := DefaultScript()
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Name)
	require.Len(t, s.Runs, 2)
	assert.Equal(t, s.Runs[0].Steps, s.run(2).Steps)
}

func TestParseScriptInvalid(t *testing.T) {
	cases := map[string]string{
		"no runs":       "name: x\n",
		"empty step":    "runs:\n  - steps:\n      - when: approved\n",
		"untyped frame": "runs:\n  - steps:\n      - frame: {delta: hi}\n",
		"bad condition": "runs:\n  - steps:\n      - frame: {type: RUN_STARTED}\n        when: maybe\n",
		"broken yaml":   "runs: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	data, err := render(map[string]any{
		"type":         "TOOL_CALL_START",
		"tool_call_id": "${task_id}-t1",
	}, "th", "task9")
	require.NoError(t, err)

	ev, err := conversation.Decode(data)
	require.NoError(t, err)
	start, ok := ev.(*conversation.ToolCallStartEvent)
	require.True(t, ok)
	assert.Equal(t, conversation.ToolCallId("task9-t1"), start.ToolCallId)
	assert.Equal(t, conversation.ThreadId("th"), start.ThreadId)
	assert.Equal(t, conversation.TaskId("task9"), start.TaskId)
}

func TestRejectsUnknownMethod(t *testing.T) {
	s := New(context.Background(), &Script{Runs: []Run{{}}})

	req := httptest.NewRequest(http.MethodPost, "/agents/a",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "-32601")
}

func TestDecisionOnce(t *testing.T) {
	s := New(context.Background(), &Script{Runs: []Run{{}}})

	post := func(path string) int {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, post("/tool-calls/t1/approve"))
	assert.Equal(t, http.StatusConflict, post("/tool-calls/t1/reject"))
	assert.Equal(t, DecisionApproved, <-s.decisionCh("t1"))
}

func runDemo(t *testing.T, typ model.Type) {
	script, err := DefaultScript()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(New(ctx, script).Handler())
	t.Cleanup(srv.Close)

	bus := channel.NewBus()
	bus.Register(sse.New(sse.Config{BaseURL: srv.URL, StreamPath: streamPath}))
	bus.Register(ws.New(ws.Config{BaseURL: srv.URL, StreamPath: streamPath}))

	var connected atomic.Bool
	ch, err := bus.Channel(typ, channel.WithStatusHandler(func(st model.Status) {
		connected.Store(st.State == model.StateConnected)
	}))
	require.NoError(t, err)

	b, err := a2a.New(a2a.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	sess, err := session.New(ch, b)
	require.NoError(t, err)
	go func() { _ = sess.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-sess.Done()
	})

	require.NoError(t, sess.SwitchThread(ctx, conversation.Scope{AgentId: "demo", Thread: "th-1"}))
	require.Eventually(t, connected.Load, 5*time.Second, 10*time.Millisecond, "stream connected")

	eventually := func(cond func(s *conversation.Snapshot) bool, msg string) {
		t.Helper()
		require.Eventually(t, func() bool {
			snap, err := sess.Snapshot(ctx)
			return err == nil && cond(snap)
		}, 10*time.Second, 20*time.Millisecond, msg)
	}

	require.NoError(t, sess.Send(ctx, "tell me about cats"))
	eventually(func(s *conversation.Snapshot) bool {
		return len(s.WaitingApproval()) == 1
	}, "tool call waiting for approval")

	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	call := snap.WaitingApproval()[0]
	assert.Equal(t, "web_search", call.Name)
	assert.JSONEq(t, `{"query":"cat facts"}`, call.Args)
	assert.Empty(t, snap.Thinking)

	require.NoError(t, sess.Approve(ctx, call.Id))
	eventually(func(s *conversation.Snapshot) bool {
		return !s.Run.IsLoading && s.ToolCalls[0].Status == conversation.StatusCompleted
	}, "run finished")

	snap, err = sess.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, conversation.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "Let me look that up for you.", snap.Messages[1].Content)
	assert.Equal(t, "**Cats sleep 12 to 16 hours a day.**", snap.Messages[2].Content)
	assert.Equal(t, "Cats sleep 12 to 16 hours a day.", snap.ToolCalls[0].Result)
	for _, m := range snap.Messages {
		assert.False(t, m.IsStreaming, m.Id)
	}
	assert.Len(t, snap.Attached(snap.Messages[1].Id), 1)

	// the second scripted run fails midway
	require.NoError(t, sess.Send(ctx, "and dogs?"))
	eventually(func(s *conversation.Snapshot) bool {
		return !s.Run.IsLoading && s.Run.LastError != ""
	}, "run failed")

	snap, err = sess.Snapshot(ctx)
	require.NoError(t, err)
	last := snap.Messages[len(snap.Messages)-1]
	assert.Equal(t, conversation.RoleSystem, last.Role)
	assert.Equal(t, "Run failed: rate limited", last.Content)
	assert.Equal(t, "Thinking really hard about ", snap.Messages[len(snap.Messages)-2].Content)
}

func TestReplayOverSSE(t *testing.T) {
	runDemo(t, model.SSE)
}

func TestReplayOverWebSocket(t *testing.T) {
	runDemo(t, model.WebSocket)
}
