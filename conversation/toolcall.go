package conversation

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnknownToolCall   = errors.New("unknown tool call")
	ErrInvalidTransition = errors.New("invalid tool call transition")
)

type ToolCallStatus string

const (
	StatusPendingApproval ToolCallStatus = "pending_approval"
	StatusWaitingApproval ToolCallStatus = "waiting_approval"
	StatusApproved        ToolCallStatus = "approved"
	StatusExecuting       ToolCallStatus = "executing"
	StatusRejected        ToolCallStatus = "rejected"
	StatusCompleted       ToolCallStatus = "completed"
	StatusError           ToolCallStatus = "error"
)

func (s ToolCallStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusError
}

// edges is the whole tool call state machine.
var edges = map[ToolCallStatus][]ToolCallStatus{
	StatusPendingApproval: {StatusWaitingApproval},
	StatusWaitingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusExecuting},
	StatusExecuting:       {StatusCompleted, StatusError},
}

func canTransit(from, to ToolCallStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ToolCall struct {
	Id              ToolCallId
	Name            string
	Args            string
	Status          ToolCallStatus
	ParentMessageId MessageId
	Result          string
	Error           string
	RunId           RunId
}

// Transition is reported for every status change.
type Transition struct {
	Id   ToolCallId
	From ToolCallStatus
	To   ToolCallStatus
}

type ToolCallReducer struct {
	byId     map[ToolCallId]*ToolCall
	order    []*ToolCall
	observer func(Transition)
}

func NewToolCallReducer(observer func(Transition)) *ToolCallReducer {
	return &ToolCallReducer{
		byId:     make(map[ToolCallId]*ToolCall),
		observer: observer,
	}
}

func (r *ToolCallReducer) Reset() {
	r.byId = make(map[ToolCallId]*ToolCall)
	r.order = nil
}

func (r *ToolCallReducer) Get(id ToolCallId) (*ToolCall, bool) {
	tc, ok := r.byId[id]
	return tc, ok
}

func (r *ToolCallReducer) List() []*ToolCall {
	return r.order
}

func (r *ToolCallReducer) Start(ev *ToolCallStartEvent) bool {
	if ev.ToolCallId == "" {
		slog.Warn("[conversation] tool call start without id", "tool_name", ev.ToolName)
		return false
	}
	if _, ok := r.byId[ev.ToolCallId]; ok {
		return false
	}
	tc := &ToolCall{
		Id:              ev.ToolCallId,
		Name:            ev.ToolName,
		Status:          StatusPendingApproval,
		ParentMessageId: ev.ParentMessageId,
		RunId:           ev.RunKey(),
	}
	r.byId[tc.Id] = tc
	r.order = append(r.order, tc)
	return true
}

func (r *ToolCallReducer) Args(ev *ToolCallArgsEvent) bool {
	tc, ok := r.byId[ev.ToolCallId]
	if !ok {
		slog.Warn("[conversation] args for unknown tool call", "tool_call_id", ev.ToolCallId)
		return false
	}
	if tc.Status != StatusPendingApproval {
		slog.Debug("[conversation] ignoring args after args were closed",
			"tool_call_id", tc.Id, "status", tc.Status)
		return false
	}
	tc.Args += ev.ArgsDelta
	return true
}

func (r *ToolCallReducer) End(ev *ToolCallEndEvent) bool {
	tc, ok := r.byId[ev.ToolCallId]
	if !ok {
		slog.Warn("[conversation] end for unknown tool call", "tool_call_id", ev.ToolCallId)
		return false
	}
	return r.transit(tc, StatusWaitingApproval) == nil
}

func (r *ToolCallReducer) Result(ev *ToolCallResultEvent) bool {
	tc, ok := r.byId[ev.ToolCallId]
	if !ok {
		slog.Warn("[conversation] result for unknown tool call", "tool_call_id", ev.ToolCallId)
		return false
	}
	if tc.Status != StatusExecuting {
		slog.Debug("[conversation] ignoring result outside executing",
			"tool_call_id", tc.Id, "status", tc.Status)
		return false
	}

	to := StatusCompleted
	if ev.Failed() {
		to = StatusError
		tc.Error = ev.Error
		if tc.Error == "" {
			tc.Error = ev.Result
		}
	}
	tc.Result = ev.Result
	return r.transit(tc, to) == nil
}

// Approve records the user's approval. The caller is expected to issue the
// approval request and then call Execute.
func (r *ToolCallReducer) Approve(id ToolCallId) error {
	return r.move(id, StatusApproved)
}

// Execute marks an approved call as running without waiting for the server.
// It is never rolled back if the approval request fails.
func (r *ToolCallReducer) Execute(id ToolCallId) error {
	return r.move(id, StatusExecuting)
}

func (r *ToolCallReducer) Reject(id ToolCallId) error {
	return r.move(id, StatusRejected)
}

func (r *ToolCallReducer) move(id ToolCallId, to ToolCallStatus) error {
	tc, ok := r.byId[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToolCall, id)
	}
	return r.transit(tc, to)
}

func (r *ToolCallReducer) transit(tc *ToolCall, to ToolCallStatus) error {
	if !canTransit(tc.Status, to) {
		slog.Debug("[conversation] rejected tool call transition",
			"tool_call_id", tc.Id, "from", tc.Status, "to", to)
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, tc.Id, tc.Status, to)
	}
	t := Transition{Id: tc.Id, From: tc.Status, To: to}
	tc.Status = to
	if r.observer != nil {
		r.observer(t)
	}
	return nil
}

// Attached returns the calls rendered under message parent.
func Attached(calls []*ToolCall, parent MessageId) []*ToolCall {
	var out []*ToolCall
	for _, tc := range calls {
		if tc.ParentMessageId != "" && tc.ParentMessageId == parent {
			out = append(out, tc)
		}
	}
	return out
}

// Unattached returns parentless calls that still need attention from the user
// or are running.
func Unattached(calls []*ToolCall) []*ToolCall {
	var out []*ToolCall
	for _, tc := range calls {
		if tc.ParentMessageId != "" {
			continue
		}
		if tc.Status == StatusWaitingApproval || tc.Status == StatusExecuting {
			out = append(out, tc)
		}
	}
	return out
}
