package types

import "github.com/ryanreadbooks/tokkichat/conversation"

// ApprovalRequest is a tool call shown in the confirmation dialog
type ApprovalRequest struct {
	Id   conversation.ToolCallId
	Name string
	Args string
}

func NewApprovalRequest(tc *conversation.ToolCall) ApprovalRequest {
	return ApprovalRequest{
		Id:   tc.Id,
		Name: tc.Name,
		Args: tc.Args,
	}
}

// StatusIcon returns the marker drawn in front of a tool call
func StatusIcon(status conversation.ToolCallStatus) string {
	switch status {
	case conversation.StatusPendingApproval:
		return "…"
	case conversation.StatusWaitingApproval:
		return "?"
	case conversation.StatusApproved, conversation.StatusExecuting:
		return "⟳"
	case conversation.StatusCompleted:
		return "✓"
	case conversation.StatusRejected:
		return "⊘"
	case conversation.StatusError:
		return "✗"
	}
	return " "
}

type (
	// SnapshotMsg carries the latest conversation state
	SnapshotMsg struct {
		Snapshot *conversation.Snapshot
	}

	// ActionFailedMsg reports a user action the session refused
	ActionFailedMsg struct {
		Action string
		Err    error
	}
)

func (m ActionFailedMsg) Error() string {
	return m.Action + ": " + m.Err.Error()
}
