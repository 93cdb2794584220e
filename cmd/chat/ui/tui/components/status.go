package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/styles"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

// StatusComponent is the one line footer: transport health, thread and
// whether a run is in progress
type StatusComponent struct {
	spinner   spinner.Model
	theme     *styles.Theme
	transport model.Type
	status    model.Status
	scope     conversation.Scope
	loading   bool
	err       error
	width     int
}

// NewStatusComponent creates a new status component
func NewStatusComponent(theme *styles.Theme, transport model.Type) *StatusComponent {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = sp.Style.Foreground(styles.ColorSpinner)

	return &StatusComponent{
		spinner:   sp,
		theme:     theme,
		transport: transport,
		status:    model.Status{State: model.StateReconnecting},
		width:     80,
	}
}

// Init initializes the component
func (c *StatusComponent) Init() tea.Cmd {
	return c.spinner.Tick
}

// Update handles component updates
func (c *StatusComponent) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.spinner, cmd = c.spinner.Update(msg)
	return cmd
}

// View renders the component
func (c *StatusComponent) View() string {
	var state string
	switch c.status.State {
	case model.StateConnected:
		state = c.theme.Status.ConnectedStyle.Render("● " + string(c.transport))
	case model.StateClosed:
		state = c.theme.Status.TextStyle.Render("○ closed")
	default:
		state = c.theme.Status.ReconnectingStyle.Render(fmt.Sprintf("◌ %s reconnecting (%d)", c.transport, c.status.Attempt))
	}

	line := state + c.theme.Status.TextStyle.Render("  thread "+c.scope.Thread.String())
	if c.loading {
		line += "  " + c.spinner.View() + c.theme.Status.TextStyle.Render(" agent working")
	}
	if c.err != nil {
		line += "  " + c.theme.ToolCall.ErrorStyle.Render(c.err.Error())
	}
	return c.theme.Status.TextStyle.MaxWidth(c.width).Render(line)
}

func (c *StatusComponent) SetStatus(st model.Status) {
	c.status = st
}

func (c *StatusComponent) SetConversation(snap *conversation.Snapshot) {
	c.scope = snap.Scope
	c.loading = snap.Run.IsLoading
}

// SetError shows the last failed action until the next one succeeds
func (c *StatusComponent) SetError(err error) {
	c.err = err
}

// SetWidth sets the component width
func (c *StatusComponent) SetWidth(width int) {
	c.width = width
}
