package conversation

import (
	"fmt"
	"log/slog"

	"github.com/jinzhu/copier"
)

// Conversation is the merged state of one thread. It is not safe for
// concurrent use; a single owner goroutine applies every event and action.
type Conversation struct {
	opt   *option
	scope Scope

	messages  *MessageReducer
	thinking  *ThinkingReducer
	toolCalls *ToolCallReducer
	run       *RunReducer
}

func New(opts ...Option) *Conversation {
	opt := DefaultOption()
	opt.apply(opts...)

	return &Conversation{
		opt:       opt,
		messages:  NewMessageReducer(opt.now),
		thinking:  NewThinkingReducer(opt.now),
		toolCalls: NewToolCallReducer(opt.onTransition),
		run:       &RunReducer{},
	}
}

func (c *Conversation) Scope() Scope { return c.scope }

// SetScope switches the active thread. All state of the previous thread is
// dropped.
func (c *Conversation) SetScope(scope Scope) {
	if scope != c.scope {
		slog.Debug("[conversation] scope switched", "from", c.scope.String(), "to", scope.String())
	}
	c.scope = scope
	c.Reset()
}

func (c *Conversation) Reset() {
	c.messages.Reset()
	c.thinking.Reset()
	c.toolCalls.Reset()
	c.run.Reset()
}

func (c *Conversation) Messages() *MessageReducer   { return c.messages }
func (c *Conversation) Thinking() *ThinkingReducer  { return c.thinking }
func (c *Conversation) ToolCalls() *ToolCallReducer { return c.toolCalls }
func (c *Conversation) Run() RunState               { return c.run.State() }

// AppendUser records the user's input and marks the conversation as busy.
func (c *Conversation) AppendUser(id MessageId, text string) *Message {
	m := c.messages.Append(Message{Id: id, Role: RoleUser, Content: text})
	c.run.SetLoading(true)
	return m
}

func (c *Conversation) AppendSystem(text string) *Message {
	return c.messages.Append(Message{Role: RoleSystem, Content: text})
}

// SendSucceeded seeds the streaming agent message that the server will fill.
// A response arriving after the run already ended seeds nothing.
func (c *Conversation) SendSucceeded(task TaskId) {
	if !c.run.State().IsLoading {
		return
	}
	c.messages.SeedPlaceholder(task)
}

func (c *Conversation) SendFailed(err error) {
	c.AppendSystem(fmt.Sprintf("Failed to send message: %v", err))
	c.run.SetLoading(false)
}

func (c *Conversation) ApproveToolCall(id ToolCallId) error {
	return c.toolCalls.Approve(id)
}

func (c *Conversation) ExecuteToolCall(id ToolCallId) error {
	return c.toolCalls.Execute(id)
}

func (c *Conversation) RejectToolCall(id ToolCallId) error {
	return c.toolCalls.Reject(id)
}

// ExpireThinking is the cleanup timer callback.
func (c *Conversation) ExpireThinking(key ThinkingKey, generation uint64) bool {
	return c.thinking.Expire(key, generation)
}

// Snapshot is a deep copy of the state, safe to hand to another goroutine.
type Snapshot struct {
	Scope     Scope
	Messages  []*Message
	Thinking  []*ThinkingIndicator
	ToolCalls []*ToolCall
	Run       RunState
}

func (c *Conversation) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		Scope: c.scope,
		Run:   c.run.State(),
	}
	opt := copier.Option{DeepCopy: true}
	if err := copier.CopyWithOption(&snap.Messages, c.messages.List(), opt); err != nil {
		return nil, fmt.Errorf("failed to copy messages: %w", err)
	}
	if err := copier.CopyWithOption(&snap.Thinking, c.thinking.List(), opt); err != nil {
		return nil, fmt.Errorf("failed to copy thinking indicators: %w", err)
	}
	if err := copier.CopyWithOption(&snap.ToolCalls, c.toolCalls.List(), opt); err != nil {
		return nil, fmt.Errorf("failed to copy tool calls: %w", err)
	}
	return snap, nil
}

func (s *Snapshot) Attached(parent MessageId) []*ToolCall {
	return Attached(s.ToolCalls, parent)
}

func (s *Snapshot) Unattached() []*ToolCall {
	return Unattached(s.ToolCalls)
}

// WaitingApproval returns calls the user still has to decide on, oldest first.
func (s *Snapshot) WaitingApproval() []*ToolCall {
	var out []*ToolCall
	for _, tc := range s.ToolCalls {
		if tc.Status == StatusWaitingApproval {
			out = append(out, tc)
		}
	}
	return out
}
