package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions
var (
	ColorUserPrimary   = lipgloss.Color("#937dd8")
	ColorAgentPrimary  = lipgloss.Color("#0f8b56")
	ColorAgentThinking = lipgloss.Color("#5e5e5e") // neutral gray
	ColorSystem        = lipgloss.Color("#d9534f")
	ColorToolCall      = lipgloss.Color("#6b7b8c") // blue-gray
	ColorToolCallArgs  = lipgloss.Color("#5e6e7e")
	ColorStatus        = lipgloss.Color("#808080")
	ColorConnected     = lipgloss.Color("#2ECC71")
	ColorReconnecting  = lipgloss.Color("#f0ad4e")
	ColorConfirmDanger = lipgloss.Color("#ff6b6b")
	ColorSpinner       = lipgloss.Color("#2ECC71")
)
