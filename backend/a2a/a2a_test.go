package a2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryanreadbooks/tokkichat/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSendMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/agents/assistant", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, MethodSendStreaming, req["method"])

		params := req["params"].(map[string]any)
		msg := params["message"].(map[string]any)
		assert.Equal(t, "msg-1", msg["messageId"])
		assert.Equal(t, "user", msg["role"])
		assert.Equal(t, "thread-1", msg["contextId"])
		assert.Equal(t, []any{map[string]any{"kind": "text", "text": "hello"}}, msg["parts"])
		assert.Equal(t, map[string]any{"blocking": false}, params["configuration"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"id":"task-9","contextId":"thread-1","kind":"task"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, ApiKey: "k"})
	require.NoError(t, err)

	resp, err := c.SendMessage(context.Background(), &backend.SendRequest{
		AgentId:   "assistant",
		ThreadId:  "thread-1",
		MessageId: "msg-1",
		Text:      "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-9", resp.TaskId)
	assert.Equal(t, "thread-1", resp.ContextId)
}

func TestSendMessageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "json-rpc error",
			status: http.StatusOK,
			body:   `{"jsonrpc":"2.0","id":1,"error":{"code":-32001,"message":"agent busy"}}`,
			checkFn: func(t *testing.T, err error) {
				var rpcErr *backend.RPCError
				require.ErrorAs(t, err, &rpcErr)
				assert.Equal(t, -32001, rpcErr.Code)
				assert.Contains(t, err.Error(), "agent busy")
			},
		},
		{
			name:   "http status",
			status: http.StatusBadGateway,
			body:   "upstream down",
			checkFn: func(t *testing.T, err error) {
				var statusErr *backend.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
				assert.Equal(t, "upstream down", statusErr.Body)
			},
		},
		{
			name:   "missing task id",
			status: http.StatusOK,
			body:   `{"jsonrpc":"2.0","id":1,"result":{}}`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "no task id")
			},
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `<html>`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "failed to decode response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{BaseURL: srv.URL})
			require.NoError(t, err)
			_, err = c.SendMessage(context.Background(), &backend.SendRequest{AgentId: "a", ThreadId: "t", Text: "x"})
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestToolCallDecisions(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		paths <- r.URL.Path
		if r.URL.Path == "/tool-calls/t2/reject" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	require.NoError(t, c.ApproveToolCall(context.Background(), "t1"))
	assert.Equal(t, "/tool-calls/t1/approve", <-paths)

	err = c.RejectToolCall(context.Background(), "t2")
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "/tool-calls/t2/reject", <-paths)
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestSendMessageTracing(t *testing.T) {
	t.Parallel()

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"id":"task-9"}}`))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	c, err := New(Config{BaseURL: srv.URL, TracerProvider: tp, Propagator: propagation.TraceContext{}})
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), &backend.SendRequest{AgentId: "assistant", ThreadId: "th", MessageId: "m", Text: "hi"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "a2a.SendMessage", span.Name())
	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("task.id", "task-9"))
	assert.Contains(t, span.Attributes(), attribute.String("thread.id", "th"))

	// the request carries the span context downstream
	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
	assert.Contains(t, traceparent, span.SpanContext().SpanID().String())
}

func TestDecisionTracingRecordsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	c, err := New(Config{BaseURL: srv.URL, TracerProvider: tp})
	require.NoError(t, err)
	require.Error(t, c.ApproveToolCall(context.Background(), "t1"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "a2a.ToolCall.approve", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("tool_call.id", "t1"))
}
