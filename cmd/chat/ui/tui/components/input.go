package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type CommandKind int

const (
	CommandSend CommandKind = iota
	CommandNewThread
	CommandSwitchThread
)

// Command is a submitted line of input.
type Command struct {
	Kind CommandKind
	Arg  string
}

// ParseCommand recognises the slash commands. Anything else is a message.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	switch {
	case line == "/new":
		return Command{Kind: CommandNewThread}
	case strings.HasPrefix(line, "/thread "):
		if id := strings.TrimSpace(strings.TrimPrefix(line, "/thread ")); id != "" {
			return Command{Kind: CommandSwitchThread, Arg: id}
		}
	}
	return Command{Kind: CommandSend, Arg: line}
}

// InputComponent is the prompt under the chat. Up and down walk through what
// was sent before while the prompt is single line.
type InputComponent struct {
	textarea textarea.Model
	history  []string
	cursor   int
}

func NewInputComponent(height int) *InputComponent {
	ta := textarea.New()
	ta.Placeholder = "Message the agent, /new for a new thread, /thread <id> to switch"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.SetHeight(height)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &InputComponent{textarea: ta}
}

func (c *InputComponent) Init() tea.Cmd {
	return textarea.Blink
}

func (c *InputComponent) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && c.textarea.LineCount() <= 1 {
		switch key.Type {
		case tea.KeyUp:
			c.recall(-1)
			return nil
		case tea.KeyDown:
			c.recall(1)
			return nil
		}
	}

	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return cmd
}

func (c *InputComponent) recall(step int) {
	if len(c.history) == 0 {
		return
	}
	c.cursor = min(max(c.cursor+step, 0), len(c.history))
	if c.cursor == len(c.history) {
		c.textarea.Reset()
		return
	}
	c.textarea.SetValue(c.history[c.cursor])
}

func (c *InputComponent) View() string {
	return c.textarea.View()
}

// Submit takes the current line out of the prompt. ok is false for a blank
// prompt.
func (c *InputComponent) Submit() (cmd Command, ok bool) {
	line := strings.TrimSpace(c.textarea.Value())
	if line == "" {
		return Command{}, false
	}
	c.history = append(c.history, line)
	c.cursor = len(c.history)
	c.textarea.Reset()
	c.textarea.Focus()
	return ParseCommand(line), true
}

func (c *InputComponent) SetWidth(width int) {
	c.textarea.SetWidth(width)
}
