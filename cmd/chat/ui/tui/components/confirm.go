package components

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/styles"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
)

// ConfirmDialog asks the user to approve or reject one tool call
type ConfirmDialog struct {
	theme   *styles.Theme
	request types.ApprovalRequest
	queued  int
	visible bool
	width   int
}

// NewConfirmDialog creates a new confirmation dialog
func NewConfirmDialog(theme *styles.Theme) *ConfirmDialog {
	return &ConfirmDialog{
		theme: theme,
		width: 80,
	}
}

func (c *ConfirmDialog) Init() tea.Cmd {
	return nil
}

// View renders the component
func (c *ConfirmDialog) View() string {
	if !c.visible {
		return ""
	}

	boxWidth := c.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	confirmText := fmt.Sprintf("⚠️  The agent wants to run %s\n\n%s\n\n[Enter] Approve  [Esc] Reject",
		c.request.Name, types.FormatToolCallArgs(c.request.Name, c.request.Args, boxWidth-6))
	if c.queued > 0 {
		confirmText += fmt.Sprintf("  (%d more waiting)", c.queued)
	}

	return c.theme.Confirm.BoxStyle.Width(boxWidth).Render(confirmText)
}

// Show displays the confirmation dialog
func (c *ConfirmDialog) Show(req types.ApprovalRequest) {
	c.request = req
	c.visible = true
}

// SetQueued sets how many calls wait behind the shown one.
func (c *ConfirmDialog) SetQueued(n int) {
	c.queued = n
}

func (c *ConfirmDialog) Hide() {
	c.visible = false
	c.queued = 0
	c.request = types.ApprovalRequest{}
}

func (c *ConfirmDialog) IsVisible() bool {
	return c.visible
}

// Request returns the tool call being asked about
func (c *ConfirmDialog) Request() types.ApprovalRequest {
	return c.request
}

// SetWidth sets the dialog width
func (c *ConfirmDialog) SetWidth(width int) {
	c.width = width
}
