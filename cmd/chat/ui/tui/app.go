package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/handlers"
)

// Run starts the TUI application. The session must already be running and
// subscribed to a thread.
func Run(
	handler *handlers.SessionHandler,
	notifier *handlers.Notifier,
	transport model.Type,
) error {
	model := New(handler, transport)

	// Create program
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Route session callbacks to the program
	notifier.SetProgram(program)
	defer notifier.SetProgram(nil)

	// Run
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
