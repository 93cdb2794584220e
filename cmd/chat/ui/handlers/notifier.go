package handlers

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
	"github.com/ryanreadbooks/tokkichat/conversation"
)

// Notifier forwards session and transport callbacks to the running program.
// Callbacks that fire before a program is attached are dropped; the program
// asks for a snapshot when it starts.
type Notifier struct {
	program atomic.Pointer[tea.Program]
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// SetProgram sets the tea program reference
func (n *Notifier) SetProgram(p *tea.Program) {
	n.program.Store(p)
}

func (n *Notifier) OnChange(snap *conversation.Snapshot) {
	if p := n.program.Load(); p != nil {
		p.Send(types.SnapshotMsg{Snapshot: snap})
	}
}

func (n *Notifier) OnStatus(st model.Status) {
	if p := n.program.Load(); p != nil {
		p.Send(st)
	}
}
