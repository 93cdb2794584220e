package handlers

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/session"
)

// SessionHandler turns user actions into commands. Every call into the
// session runs inside a command so the UI loop never waits on it.
type SessionHandler struct {
	ctx     context.Context
	session *session.Session
	agentId string
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(ctx context.Context, s *session.Session, agentId string) *SessionHandler {
	return &SessionHandler{
		ctx:     ctx,
		session: s,
		agentId: agentId,
	}
}

func (h *SessionHandler) run(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return types.ActionFailedMsg{Action: action, Err: err}
		}
		return nil
	}
}

// Send sends a user message
func (h *SessionHandler) Send(text string) tea.Cmd {
	return h.run("send", func() error {
		return h.session.Send(h.ctx, text)
	})
}

func (h *SessionHandler) Approve(id conversation.ToolCallId) tea.Cmd {
	return h.run("approve", func() error {
		return h.session.Approve(h.ctx, id)
	})
}

func (h *SessionHandler) Reject(id conversation.ToolCallId) tea.Cmd {
	return h.run("reject", func() error {
		return h.session.Reject(h.ctx, id)
	})
}

// SwitchThread subscribes to another thread of the same agent
func (h *SessionHandler) SwitchThread(thread string) tea.Cmd {
	return h.run("switch thread", func() error {
		return h.session.SwitchThread(h.ctx, conversation.Scope{
			AgentId: h.agentId,
			Thread:  conversation.ThreadId(thread),
		})
	})
}

// Refresh fetches the current state once; later changes arrive through the
// Notifier.
func (h *SessionHandler) Refresh() tea.Cmd {
	return func() tea.Msg {
		snap, err := h.session.Snapshot(h.ctx)
		if err != nil {
			return types.ActionFailedMsg{Action: "refresh", Err: err}
		}
		return types.SnapshotMsg{Snapshot: snap}
	}
}
