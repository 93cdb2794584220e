package tui

import "strings"

// View renders the entire UI
func (m Model) View() string {
	parts := []string{m.chat.View()}
	if m.toolCall.IsVisible() {
		parts = append(parts, m.toolCall.View())
	}

	// Show confirmation dialog instead of the input if visible
	if m.confirm.IsVisible() {
		parts = append(parts, m.confirm.View())
	} else {
		parts = append(parts, m.input.View())
	}

	parts = append(parts, m.status.View())
	return strings.Join(parts, "\n")
}
