package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/styles"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

type rendered struct {
	content string
	out     string
}

// ChatComponent handles the chat message display area
type ChatComponent struct {
	viewport viewport.Model
	snapshot *conversation.Snapshot
	theme    *styles.Theme
	markdown *glamour.TermRenderer
	cache    map[conversation.MessageId]rendered
	width    int
	height   int
}

// NewChatComponent creates a new chat component
func NewChatComponent(theme *styles.Theme) *ChatComponent {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true
	vp.KeyMap = viewport.DefaultKeyMap()

	c := &ChatComponent{
		viewport: vp,
		theme:    theme,
		cache:    make(map[conversation.MessageId]rendered),
		width:    80,
		height:   20,
	}
	c.resetRenderer()
	return c
}

// Init initializes the component
func (c *ChatComponent) Init() tea.Cmd {
	return nil
}

// Update handles component updates
func (c *ChatComponent) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

// View renders the component
func (c *ChatComponent) View() string {
	return c.viewport.View()
}

// SetSnapshot replaces everything shown with the given state
func (c *ChatComponent) SetSnapshot(snap *conversation.Snapshot) {
	c.snapshot = snap
	c.refresh()
}

// SetSize updates the component size
func (c *ChatComponent) SetSize(width, height int) {
	if width != c.width {
		c.width = width
		c.resetRenderer()
	}
	c.height = height
	c.viewport.Width = width
	c.viewport.Height = height
	c.refresh()
}

func (c *ChatComponent) resetRenderer() {
	c.cache = make(map[conversation.MessageId]rendered)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(c.boxWidth()-2),
	)
	if err != nil {
		c.markdown = nil
		return
	}
	c.markdown = r
}

func (c *ChatComponent) boxWidth() int {
	w := c.width - 4 // Account for padding and border
	if w < 20 {
		w = 20
	}
	return w
}

// refresh updates the viewport content
func (c *ChatComponent) refresh() {
	atBottom := c.viewport.AtBottom()
	c.viewport.SetContent(lipgloss.NewStyle().Width(c.viewport.Width).Render(c.renderSnapshot()))
	if atBottom || c.snapshot == nil || c.snapshot.Run.IsLoading {
		c.viewport.GotoBottom()
	}
}

func (c *ChatComponent) renderSnapshot() string {
	if c.snapshot == nil || len(c.snapshot.Messages)+len(c.snapshot.Thinking) == 0 {
		return c.theme.Status.TextStyle.Render("Say something to start the conversation.")
	}

	var sb strings.Builder
	for _, msg := range c.snapshot.Messages {
		switch msg.Role {
		case conversation.RoleUser:
			sb.WriteString(c.renderBox(c.theme.User, "You:", c.theme.User.BodyStyle.Render(msg.Content)))
		case conversation.RoleAgent:
			sb.WriteString(c.renderAgentMessage(msg))
		case conversation.RoleSystem:
			sb.WriteString(c.renderSystemMessage(msg.Content))
		case conversation.RoleThinking:
			sb.WriteString(c.renderThinking(msg.Content))
		}
		for _, tc := range c.snapshot.Attached(msg.Id) {
			sb.WriteString(c.renderToolCall(tc))
		}
	}

	for _, th := range c.snapshot.Thinking {
		sb.WriteString(c.renderThinking(th.Content))
	}

	return sb.String()
}

func (c *ChatComponent) renderBox(theme styles.MessageTheme, title, body string) string {
	header := theme.HeaderStyle.Render(title)
	return theme.BoxStyle.Width(c.boxWidth()).Render(header+"\n"+body) + "\n"
}

// renderAgentMessage shows streaming text as is and finished text as markdown
func (c *ChatComponent) renderAgentMessage(msg *conversation.Message) string {
	if msg.Content == "" && msg.IsStreaming {
		return c.renderBox(c.theme.Agent, "Agent:", c.theme.Thinking.BodyStyle.Render("…"))
	}
	if msg.IsStreaming || c.markdown == nil {
		body := msg.Content
		if msg.IsStreaming {
			body += "▍"
		}
		return c.renderBox(c.theme.Agent, "Agent:", c.theme.Agent.BodyStyle.Render(body))
	}

	if r, ok := c.cache[msg.Id]; ok && r.content == msg.Content {
		return c.renderBox(c.theme.Agent, "Agent:", r.out)
	}
	out, err := c.markdown.Render(msg.Content)
	if err != nil {
		out = c.theme.Agent.BodyStyle.Render(msg.Content)
	}
	out = strings.Trim(out, "\n")
	c.cache[msg.Id] = rendered{content: msg.Content, out: out}
	return c.renderBox(c.theme.Agent, "Agent:", out)
}

func (c *ChatComponent) renderSystemMessage(content string) string {
	header := c.theme.System.HeaderStyle.Render("⚠ ")
	return c.theme.System.BoxStyle.Render(header+c.theme.System.BodyStyle.Render(content)) + "\n"
}

func (c *ChatComponent) renderThinking(content string) string {
	header := c.theme.Thinking.HeaderStyle.Render("Thinking:")
	if content == "" {
		content = "…"
	}
	body := c.theme.Thinking.BodyStyle.Render(content)
	return header + "\n" + body + "\n\n"
}

// renderToolCall renders a tool call under its message (no box, similar to thinking)
func (c *ChatComponent) renderToolCall(tc *conversation.ToolCall) string {
	header := c.theme.ToolCall.NameStyle.Render(types.StatusIcon(tc.Status) + " Tool: " + tc.Name)
	body := c.theme.ToolCall.ArgsStyle.Render(types.FormatToolCallArgs(tc.Name, tc.Args, c.boxWidth()))

	var tail string
	switch tc.Status {
	case conversation.StatusCompleted:
		tail = "\n" + c.theme.ToolCall.ResultStyle.Render("→ "+firstLine(tc.Result, c.boxWidth()))
	case conversation.StatusError:
		tail = "\n" + c.theme.ToolCall.ErrorStyle.Render("✗ "+firstLine(tc.Error, c.boxWidth()))
	case conversation.StatusRejected:
		tail = "\n" + c.theme.ToolCall.ResultStyle.Render("rejected")
	}
	return header + "\n" + body + tail + "\n\n"
}

func firstLine(s string, maxLen int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if maxLen > 3 {
		s = ansi.Truncate(s, maxLen, "...")
	}
	return s
}
