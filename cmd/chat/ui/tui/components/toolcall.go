package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/styles"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

// ToolCallComponent lists tool calls that belong to no message and are still
// in flight
type ToolCallComponent struct {
	viewport viewport.Model
	spinner  spinner.Model
	theme    *styles.Theme
	calls    []*conversation.ToolCall
}

// NewToolCallComponent creates a new tool call component
func NewToolCallComponent(theme *styles.Theme) *ToolCallComponent {
	vp := viewport.New(80, 4)
	vp.MouseWheelEnabled = true
	vp.KeyMap = viewport.KeyMap{}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(styles.ColorSpinner)

	return &ToolCallComponent{
		viewport: vp,
		spinner:  sp,
		theme:    theme,
	}
}

// Init initializes the component
func (c *ToolCallComponent) Init() tea.Cmd {
	return c.spinner.Tick
}

// Update handles component updates
func (c *ToolCallComponent) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.spinner, cmd = c.spinner.Update(msg)
	if c.IsVisible() {
		c.refresh()
	}
	return cmd
}

// View renders the component
func (c *ToolCallComponent) View() string {
	if !c.IsVisible() {
		return ""
	}
	return c.viewport.View()
}

// Show replaces the listed calls
func (c *ToolCallComponent) Show(calls []*conversation.ToolCall) {
	c.calls = calls
	c.refresh()
}

// IsVisible returns whether the component is visible
func (c *ToolCallComponent) IsVisible() bool {
	return len(c.calls) > 0
}

// Height is the number of lines the component takes when visible
func (c *ToolCallComponent) Height() int {
	if !c.IsVisible() {
		return 0
	}
	return c.viewport.Height
}

// SetWidth sets the component width
func (c *ToolCallComponent) SetWidth(width int) {
	c.viewport.Width = width
}

// refresh updates the viewport content
func (c *ToolCallComponent) refresh() {
	var sb strings.Builder
	for i, tc := range c.calls {
		if i > 0 {
			sb.WriteString("\n")
		}
		marker := types.StatusIcon(tc.Status)
		if tc.Status == conversation.StatusExecuting || tc.Status == conversation.StatusApproved {
			marker = c.spinner.View()
		}
		sb.WriteString(c.theme.ToolCall.NameStyle.Render(marker + " " + tc.Name))
		sb.WriteString(" ")
		sb.WriteString(c.theme.ToolCall.ArgsStyle.Render(types.FormatToolCallArgs(tc.Name, tc.Args, c.viewport.Width-len(tc.Name)-4)))
	}
	c.viewport.SetContent(sb.String())
}
