package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/handlers"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

// SpinnerModel is a simple model showing a spinner while the run is going
type SpinnerModel struct {
	spinner spinner.Model
	handler *handlers.SessionHandler
	message string
	approve bool
	decided map[conversation.ToolCallId]struct{}
	sent    bool
	done    bool
	answer  string
	err     error
}

// NewSpinnerModel creates a new spinner model
func NewSpinnerModel(handler *handlers.SessionHandler, message string, approve bool) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))

	return SpinnerModel{
		spinner: s,
		handler: handler,
		message: message,
		approve: approve,
		decided: make(map[conversation.ToolCallId]struct{}),
	}
}

func (m SpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.handler.Send(m.message))
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case ActionFailedMsg:
		m.done = true
		m.err = msg
		return m, tea.Quit

	case SnapshotMsg:
		return m.handleSnapshot(msg.Snapshot)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m SpinnerModel) handleSnapshot(snap *conversation.Snapshot) (tea.Model, tea.Cmd) {
	// everything after the last user message belongs to this run
	last := -1
	for i, msg := range snap.Messages {
		if msg.Role == conversation.RoleUser {
			last = i
		}
	}
	if last < 0 {
		return m, nil
	}
	m.sent = true

	// there is nobody to ask, so decide by flag
	var cmds []tea.Cmd
	for _, tc := range snap.WaitingApproval() {
		if _, ok := m.decided[tc.Id]; ok {
			continue
		}
		m.decided[tc.Id] = struct{}{}
		if m.approve {
			cmds = append(cmds, m.handler.Approve(tc.Id))
		} else {
			cmds = append(cmds, m.handler.Reject(tc.Id))
		}
	}
	if snap.Run.IsLoading {
		return m, tea.Batch(cmds...)
	}

	var sb strings.Builder
	for _, msg := range snap.Messages[last+1:] {
		if msg.Content == "" {
			continue
		}
		if msg.Role == conversation.RoleSystem {
			sb.WriteString("⚠ ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	m.answer = sb.String()
	m.done = true
	return m, tea.Quit
}

func (m SpinnerModel) View() string {
	if m.done {
		return ""
	}
	if !m.sent {
		return fmt.Sprintf("%s Sending...", m.spinner.View())
	}
	return fmt.Sprintf("%s Agent working...", m.spinner.View())
}

// RunWithSpinner sends one message, waits for the run to end and prints what
// the agent said. Tool calls are approved only when approve is set.
func RunWithSpinner(
	handler *handlers.SessionHandler,
	notifier *handlers.Notifier,
	message string,
	approve bool,
) error {
	program := tea.NewProgram(NewSpinnerModel(handler, message, approve))
	notifier.SetProgram(program)
	defer notifier.SetProgram(nil)

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	// Print answer
	if m, ok := finalModel.(SpinnerModel); ok {
		if m.err != nil {
			return m.err
		}
		fmt.Print(m.answer)
	}

	return nil
}
