package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/handlers"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/components"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui/styles"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

const (
	inputHeight  = 2
	statusHeight = 1
)

// Model is the main TUI model
type Model struct {
	// Dependencies
	handler *handlers.SessionHandler
	theme   *styles.Theme

	// Components
	chat     *components.ChatComponent
	input    *components.InputComponent
	toolCall *components.ToolCallComponent
	status   *components.StatusComponent
	confirm  *components.ConfirmDialog

	// State
	snapshot *conversation.Snapshot
	decided  map[conversation.ToolCallId]struct{}
	width    int
	height   int
}

// New creates a new TUI model
func New(handler *handlers.SessionHandler, transport model.Type) Model {
	theme := styles.DefaultTheme()

	return Model{
		handler:  handler,
		theme:    theme,
		chat:     components.NewChatComponent(theme),
		input:    components.NewInputComponent(inputHeight),
		toolCall: components.NewToolCallComponent(theme),
		status:   components.NewStatusComponent(theme, transport),
		confirm:  components.NewConfirmDialog(theme),
		decided:  make(map[conversation.ToolCallId]struct{}),
		width:    80,
		height:   24,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Init(),
		m.toolCall.Init(),
		m.status.Init(),
		m.handler.Refresh(),
	)
}
