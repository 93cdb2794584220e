package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/local"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/sse"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/ws"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(opts ...Option) []Option {
	return append([]Option{
		WithBackoff(5*time.Millisecond, 20*time.Millisecond),
		WithAttemptsPerMinute(60000),
	}, opts...)
}

func collect(t *testing.T, ch *Channel, n int) []*model.Frame {
	t.Helper()
	var out []*model.Frame
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case f := <-ch.Frames():
			out = append(out, f)
		case <-timeout:
			require.FailNow(t, "timed out waiting for frames", "got %d of %d", len(out), n)
		}
	}
	return out
}

func TestSSEChannel(t *testing.T) {
	t.Parallel()

	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/assistant/threads/th/events", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		n := connections.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, ": keep-alive\n\n")
		fmt.Fprintf(w, "data: {\"type\":\"RUN_STARTED\",\"conn\":%d}\n\n", n)
		fmt.Fprintf(w, "data: {not json\n\n")
		fmt.Fprintf(w, "data: {\"type\":\"RUN_STARTED\",\"thread_id\":\"other\"}\n\n")
		fmt.Fprintf(w, "event: message\ndata: {\"type\":\"RUN_FINISHED\",\"thread_id\":\"th\",\"conn\":%d}\n\n", n)
		w.(http.Flusher).Flush()
		// returning drops the stream, the channel must reconnect
	}))
	defer srv.Close()

	var mu sync.Mutex
	var states []model.State
	ch := New(sse.New(sse.Config{
		BaseURL:    srv.URL + "/",
		StreamPath: "/agents/{agent_id}/threads/{thread_id}/events",
		ApiKey:     "secret",
	}), fastOptions(WithStatusHandler(func(st model.Status) {
		mu.Lock()
		states = append(states, st.State)
		mu.Unlock()
	}))...)

	sub := model.Subscription{AgentId: "assistant", ThreadId: "th"}
	epoch, _ := ch.Open(context.Background(), sub)
	frames := collect(t, ch, 4)
	ch.Close()

	assert.JSONEq(t, `{"type":"RUN_STARTED","conn":1}`, string(frames[0].Data))
	assert.JSONEq(t, `{"type":"RUN_FINISHED","thread_id":"th","conn":1}`, string(frames[1].Data))
	assert.JSONEq(t, `{"type":"RUN_STARTED","conn":2}`, string(frames[2].Data))
	for _, f := range frames {
		assert.Equal(t, sub, f.Scope)
		assert.Equal(t, epoch, f.Epoch)
	}
	assert.GreaterOrEqual(t, connections.Load(), int32(2))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, states, model.StateConnected)
	assert.Contains(t, states, model.StateReconnecting)
	assert.Equal(t, model.StateClosed, states[len(states)-1])
}

func TestSSEChannelRetriesBadStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"type\":\"RUN_STARTED\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ch := New(sse.New(sse.Config{BaseURL: srv.URL, StreamPath: "/t/{thread_id}"}), fastOptions()...)
	ch.Open(context.Background(), model.Subscription{ThreadId: "th"})
	defer ch.Close()

	frames := collect(t, ch, 1)
	assert.JSONEq(t, `{"type":"RUN_STARTED"}`, string(frames[0].Data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestReopenClosesPreviousSubscription(t *testing.T) {
	t.Parallel()

	closed := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thread := r.URL.Query().Get("thread")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"type\":\"RUN_STARTED\",\"thread_id\":%q}\n\n", thread)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		closed <- thread
	}))
	defer srv.Close()

	ch := New(sse.New(sse.Config{BaseURL: srv.URL, StreamPath: "/events?thread={thread_id}"}), fastOptions()...)

	first, _ := ch.Open(context.Background(), model.Subscription{ThreadId: "a"})
	f := collect(t, ch, 1)[0]
	assert.Equal(t, first, f.Epoch)

	second, _ := ch.Open(context.Background(), model.Subscription{ThreadId: "b"})
	assert.Greater(t, second, first)
	select {
	case thread := <-closed:
		assert.Equal(t, "a", thread)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "previous subscription was not closed")
	}

	f = collect(t, ch, 1)[0]
	assert.Equal(t, "b", f.Scope.ThreadId)
	assert.Equal(t, second, f.Epoch)
	ch.Close()
}

func TestWebSocketChannel(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/assistant/threads/th/events", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		for _, f := range []string{
			`{"type":"TEXT_MESSAGE_START","message_id":"m1","role":"agent"}`,
			`garbage`,
			`{"type":"TEXT_MESSAGE_CONTENT","thread_id":"nope","delta":"x"}`,
			`{"type":"TEXT_MESSAGE_CONTENT","thread_id":"th","message_id":"m1","delta":"hi"}`,
		} {
			assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ch := New(ws.New(ws.Config{
		BaseURL:    srv.URL,
		StreamPath: "/agents/{agent_id}/threads/{thread_id}/events",
	}), fastOptions()...)
	ch.Open(context.Background(), model.Subscription{AgentId: "assistant", ThreadId: "th"})
	defer ch.Close()

	frames := collect(t, ch, 2)
	assert.Contains(t, string(frames[0].Data), "TEXT_MESSAGE_START")
	assert.Contains(t, string(frames[1].Data), `"delta":"hi"`)
}

func TestLocalChannelEndOfStream(t *testing.T) {
	t.Parallel()

	src := local.New(4)
	ctx := context.Background()
	require.NoError(t, src.PushString(ctx, `{"type":"RUN_STARTED"}`))
	require.NoError(t, src.PushString(ctx, `{"type":"RUN_FINISHED"}`))
	src.Close()

	ch := New(src, WithBuffer(0))
	_, done := ch.Open(ctx, model.Subscription{ThreadId: "th"})

	frames := collect(t, ch, 2)
	assert.Contains(t, string(frames[1].Data), "RUN_FINISHED")
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "subscription did not stop at end of stream")
	}
}

func TestBus(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Register(local.New(0))
	bus.Register(sse.New(sse.Config{BaseURL: "http://127.0.0.1"}))

	assert.Equal(t, []model.Type{model.Local, model.SSE}, bus.Types())

	ch, err := bus.Channel(model.SSE)
	require.NoError(t, err)
	assert.Equal(t, model.SSE, ch.Type())

	_, err = bus.Channel(model.WebSocket)
	require.Error(t, err)
}
