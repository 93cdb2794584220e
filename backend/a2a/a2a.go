package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ryanreadbooks/tokkichat/backend"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	MethodSendStreaming = "message/send_streaming"

	tracerName = "github.com/ryanreadbooks/tokkichat/backend/a2a"
)

var _ backend.Backend = (*Client)(nil)

type Config struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration
	Client  *http.Client

	// Tracing defaults to the global otel provider and propagator.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// Client talks json-rpc to the agent endpoint and plain POSTs to the tool call
// approval endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tracer  trace.Tracer
	prop    propagation.TextMapPropagator
	id      atomic.Uint64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      uint64 `json:"id"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	Result  json.RawMessage   `json:"result"`
	Error   *backend.RPCError `json:"error"`
	ID      uint64            `json:"id"`
}

type textPart struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type message struct {
	MessageId string     `json:"messageId"`
	Role      string     `json:"role"`
	Parts     []textPart `json:"parts"`
	ContextId string     `json:"contextId"`
}

type sendParams struct {
	Message       message `json:"message"`
	Configuration struct {
		Blocking bool `json:"blocking"`
	} `json:"configuration"`
}

type task struct {
	Id        string `json:"id"`
	ContextId string `json:"contextId,omitempty"`
}

func New(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	hc := c.Client
	if hc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	prop := c.Propagator
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}

	return &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		apiKey:  c.ApiKey,
		http:    hc,
		tracer:  tp.Tracer(tracerName),
		prop:    prop,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, req *backend.SendRequest) (_ *backend.SendResponse, err error) {
	ctx, span := c.tracer.Start(ctx, "a2a.SendMessage",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("agent.id", req.AgentId),
			attribute.String("thread.id", req.ThreadId),
			attribute.String("message.id", req.MessageId),
		))
	defer func() { endSpan(span, err) }()

	params := sendParams{
		Message: message{
			MessageId: req.MessageId,
			Role:      "user",
			Parts:     []textPart{{Kind: "text", Text: req.Text}},
			ContextId: req.ThreadId,
		},
	}
	params.Configuration.Blocking = false

	rpcReq := rpcRequest{
		JSONRPC: "2.0",
		Method:  MethodSendStreaming,
		ID:      c.id.Add(1),
		Params:  params,
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.post(ctx, "/agents/"+url.PathEscape(req.AgentId), body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	var t task
	if err := json.Unmarshal(rpcResp.Result, &t); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	if t.Id == "" {
		return nil, fmt.Errorf("response carries no task id")
	}
	span.SetAttributes(attribute.String("task.id", t.Id))

	return &backend.SendResponse{TaskId: t.Id, ContextId: t.ContextId}, nil
}

func (c *Client) ApproveToolCall(ctx context.Context, toolCallId string) error {
	return c.decide(ctx, toolCallId, "approve")
}

func (c *Client) RejectToolCall(ctx context.Context, toolCallId string) error {
	return c.decide(ctx, toolCallId, "reject")
}

func (c *Client) decide(ctx context.Context, toolCallId, decision string) (err error) {
	ctx, span := c.tracer.Start(ctx, "a2a.ToolCall."+decision,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tool_call.id", toolCallId)))
	defer func() { endSpan(span, err) }()

	resp, err := c.post(ctx, "/tool-calls/"+url.PathEscape(toolCallId)+"/"+decision, nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	c.prop.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &backend.StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	return resp, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
