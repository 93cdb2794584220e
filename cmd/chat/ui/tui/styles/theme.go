package styles

import "github.com/charmbracelet/lipgloss"

// MessageTheme defines styling for a message type
type MessageTheme struct {
	HeaderStyle lipgloss.Style
	BodyStyle   lipgloss.Style
	BoxStyle    lipgloss.Style
}

// ToolCallTheme defines styling for tool call display
type ToolCallTheme struct {
	NameStyle   lipgloss.Style
	ArgsStyle   lipgloss.Style
	ResultStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
}

// StatusTheme defines styling for the status line
type StatusTheme struct {
	TextStyle         lipgloss.Style
	ConnectedStyle    lipgloss.Style
	ReconnectingStyle lipgloss.Style
}

// ConfirmTheme defines styling for confirmation dialog
type ConfirmTheme struct {
	BoxStyle  lipgloss.Style
	TextStyle lipgloss.Style
}

// Theme contains all UI styling
type Theme struct {
	User     MessageTheme
	Agent    MessageTheme
	Thinking MessageTheme
	System   MessageTheme
	ToolCall ToolCallTheme
	Status   StatusTheme
	Confirm  ConfirmTheme
}

func boxed(color lipgloss.Color) MessageTheme {
	return MessageTheme{
		HeaderStyle: lipgloss.NewStyle().
			Foreground(color).
			Bold(true),
		BodyStyle: lipgloss.NewStyle().
			Foreground(color).
			AlignHorizontal(lipgloss.Left),
		BoxStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true, true, true, true).
			BorderForeground(color).
			Padding(0, 1).
			MarginBottom(1),
	}
}

// DefaultTheme returns the default theme
func DefaultTheme() *Theme {
	return &Theme{
		User:  boxed(ColorUserPrimary),
		Agent: boxed(ColorAgentPrimary),
		Thinking: MessageTheme{
			HeaderStyle: lipgloss.NewStyle().
				Foreground(ColorAgentThinking),
			BodyStyle: lipgloss.NewStyle().
				Foreground(ColorAgentThinking).
				Italic(true).
				AlignHorizontal(lipgloss.Left),
			BoxStyle: lipgloss.NewStyle(),
		},
		System: MessageTheme{
			HeaderStyle: lipgloss.NewStyle().
				Foreground(ColorSystem).
				Bold(true),
			BodyStyle: lipgloss.NewStyle().
				Foreground(ColorSystem),
			BoxStyle: lipgloss.NewStyle().
				MarginBottom(1),
		},
		ToolCall: ToolCallTheme{
			NameStyle: lipgloss.NewStyle().
				Foreground(ColorToolCall).
				Italic(true).
				Bold(true),
			ArgsStyle: lipgloss.NewStyle().
				Foreground(ColorToolCallArgs),
			ResultStyle: lipgloss.NewStyle().
				Foreground(ColorToolCallArgs).
				Faint(true),
			ErrorStyle: lipgloss.NewStyle().
				Foreground(ColorSystem),
		},
		Status: StatusTheme{
			TextStyle: lipgloss.NewStyle().
				Foreground(ColorStatus),
			ConnectedStyle: lipgloss.NewStyle().
				Foreground(ColorConnected),
			ReconnectingStyle: lipgloss.NewStyle().
				Foreground(ColorReconnecting),
		},
		Confirm: ConfirmTheme{
			BoxStyle: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorConfirmDanger).
				Padding(1, 2),
			TextStyle: lipgloss.NewStyle(),
		},
	}
}
