package backend

import (
	"context"
	"fmt"
)

type SendRequest struct {
	AgentId   string
	ThreadId  string
	MessageId string
	Text      string
}

type SendResponse struct {
	TaskId    string
	ContextId string
}

// Backend is the agent service as seen by the client. Sending starts a run
// whose events arrive on the thread's event stream, not in the response.
type Backend interface {
	SendMessage(ctx context.Context, req *SendRequest) (*SendResponse, error)

	ApproveToolCall(ctx context.Context, toolCallId string) error

	RejectToolCall(ctx context.Context, toolCallId string) error
}

// StatusError is returned when the service answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("agent service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("agent service returned status %d: %s", e.StatusCode, e.Body)
}

// RPCError is a json-rpc error object returned by the service.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("agent service error %d: %s", e.Code, e.Message)
}
