package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/components"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

// Update handles all model updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle specific messages first
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.layout(), nil

	case tea.KeyMsg:
		// For key messages, handle special keys first before passing to input
		newModel, cmd, handled := m.handleKeyPress(msg)
		if handled {
			return newModel, cmd
		}
		return newModel, m.input.Update(msg)

	case tea.MouseMsg:
		// Pass mouse events to chat for scrolling
		return m, m.chat.Update(msg)

	case SnapshotMsg:
		return m.handleSnapshot(msg.Snapshot), nil

	case StatusMsg:
		m.status.SetStatus(msg)
		return m, nil

	case ActionFailedMsg:
		m.status.SetError(msg)
		return m, nil
	}

	// For other messages (like blink and spinner ticks)
	cmds = append(cmds, m.input.Update(msg), m.status.Update(msg), m.toolCall.Update(msg))

	return m, tea.Batch(cmds...)
}

// layout splits the height between the components
func (m Model) layout() Model {
	// chat \n [tool calls \n] input \n status
	reserved := inputHeight + statusHeight + 2
	if m.toolCall.IsVisible() {
		reserved += m.toolCall.Height() + 1
	}
	chatHeight := m.height - reserved
	if chatHeight < 5 {
		chatHeight = 5
	}

	m.chat.SetSize(m.width, chatHeight)
	m.input.SetWidth(m.width)
	m.toolCall.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.confirm.SetWidth(m.width)

	return m
}

func (m Model) handleSnapshot(snap *conversation.Snapshot) Model {
	if snap == nil {
		return m
	}
	if m.snapshot == nil || m.snapshot.Scope != snap.Scope {
		m.decided = make(map[conversation.ToolCallId]struct{})
	}
	m.snapshot = snap

	wasVisible := m.toolCall.IsVisible()
	m.toolCall.Show(snap.Unattached())
	m.status.SetConversation(snap)
	m.chat.SetSnapshot(snap)
	if wasVisible != m.toolCall.IsVisible() {
		m = m.layout()
	}

	return m.nextApproval()
}

// nextApproval keeps the dialog pointed at a call that is still undecided
func (m Model) nextApproval() Model {
	if m.snapshot == nil {
		return m
	}

	var pending []*conversation.ToolCall
	for _, tc := range m.snapshot.WaitingApproval() {
		if _, ok := m.decided[tc.Id]; !ok {
			pending = append(pending, tc)
		}
	}

	if m.confirm.IsVisible() {
		for _, tc := range pending {
			if tc.Id == m.confirm.Request().Id {
				m.confirm.SetQueued(len(pending) - 1)
				return m
			}
		}
		m.confirm.Hide()
	}

	if len(pending) > 0 {
		m.confirm.Show(types.NewApprovalRequest(pending[0]))
		m.confirm.SetQueued(len(pending) - 1)
	}
	return m
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	// Handle tool call approval if visible
	if m.confirm.IsVisible() {
		req := m.confirm.Request()
		switch msg.Type {
		case tea.KeyEnter:
			m.decided[req.Id] = struct{}{}
			m.confirm.Hide()
			return m.nextApproval(), m.handler.Approve(req.Id), true
		case tea.KeyEsc, tea.KeyCtrlC:
			m.decided[req.Id] = struct{}{}
			m.confirm.Hide()
			return m.nextApproval(), m.handler.Reject(req.Id), true
		}
		// Ignore other keys during confirmation
		return m, nil, true
	}

	// Handle normal key presses
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit, true

	case tea.KeyEnter:
		input, ok := m.input.Submit()
		if !ok {
			return m, nil, true
		}
		m.status.SetError(nil)

		var cmd tea.Cmd
		switch input.Kind {
		case components.CommandNewThread:
			cmd = m.handler.SwitchThread(uuid.NewString())
		case components.CommandSwitchThread:
			cmd = m.handler.SwitchThread(input.Arg)
		default:
			cmd = m.handler.Send(input.Arg)
		}

		// Keep the cursor blinking
		return m, tea.Batch(cmd, m.input.Init()), true
	}

	return m, nil, false
}
