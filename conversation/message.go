package conversation

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleAgent    Role = "agent"
	RoleThinking Role = "thinking"
	RoleSystem   Role = "system"
)

func normalizeRole(role string) Role {
	switch role {
	case "", "agent", "assistant", "model":
		return RoleAgent
	case "user":
		return RoleUser
	case "system", "developer":
		return RoleSystem
	case "thinking", "reasoning":
		return RoleThinking
	}
	return Role(role)
}

type Message struct {
	Id          MessageId
	Role        Role
	Content     string
	IsStreaming bool
	TaskId      TaskId
	RunId       RunId
	Timestamp   time.Time

	// Placeholder is set on the agent message seeded by the send path until
	// the server announces its own id for it.
	Placeholder bool
}

// correlates reports whether m belongs to the run named by env. Run id and task
// id are treated as aliases of each other.
func (m *Message) correlates(env Envelope) bool {
	if env.RunId != "" {
		if m.RunId == env.RunId || RunId(m.TaskId) == env.RunId {
			return true
		}
	}
	if env.TaskId != "" {
		if m.TaskId == env.TaskId || TaskId(m.RunId) == env.TaskId {
			return true
		}
	}
	return false
}

func (m *Message) bind(env Envelope) {
	if m.RunId == "" {
		m.RunId = env.RunId
	}
	if m.TaskId == "" {
		m.TaskId = env.TaskId
	}
}

func hasRunKey(env Envelope) bool {
	return env.RunId != "" || env.TaskId != ""
}

func newLocalMessageId() MessageId {
	return MessageId(uuid.Must(uuid.NewV7()).String())
}

// MessageReducer owns the transcript. Messages move from streaming to
// finalized and never back.
type MessageReducer struct {
	byId  map[MessageId]*Message
	order []*Message
	now   func() time.Time
}

func NewMessageReducer(now func() time.Time) *MessageReducer {
	if now == nil {
		now = time.Now
	}
	return &MessageReducer{
		byId: make(map[MessageId]*Message),
		now:  now,
	}
}

func (r *MessageReducer) Reset() {
	r.byId = make(map[MessageId]*Message)
	r.order = nil
}

func (r *MessageReducer) Get(id MessageId) (*Message, bool) {
	m, ok := r.byId[id]
	return m, ok
}

// List returns messages in arrival order.
func (r *MessageReducer) List() []*Message {
	return r.order
}

// Append inserts a message built locally (user input, system notices, the
// send path placeholder). An empty id is filled in.
func (r *MessageReducer) Append(m Message) *Message {
	if m.Id == "" {
		m.Id = newLocalMessageId()
	}
	if _, ok := r.byId[m.Id]; ok {
		return r.byId[m.Id]
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = r.now()
	}
	msg := &m
	r.byId[msg.Id] = msg
	r.order = append(r.order, msg)
	return msg
}

// SeedPlaceholder adds a streaming agent message correlated with task, unless
// the server has already started an agent message for it. Frames often carry no
// run key, so any agent message after the latest user message counts as started.
func (r *MessageReducer) SeedPlaceholder(task TaskId) *Message {
	env := Envelope{TaskId: task}
	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.order[i]
		if m.Role == RoleUser {
			break
		}
		if m.Role == RoleAgent {
			return nil
		}
	}
	for _, m := range r.order {
		if m.Role == RoleAgent && m.correlates(env) {
			return nil
		}
	}
	return r.Append(Message{
		Role:        RoleAgent,
		IsStreaming: true,
		TaskId:      task,
		Placeholder: true,
	})
}

func (r *MessageReducer) Start(ev *TextMessageStartEvent) {
	if ev.MessageId != "" {
		if _, ok := r.byId[ev.MessageId]; ok {
			return
		}
	}

	role := normalizeRole(ev.Role)
	if role == RoleAgent {
		if p := r.latestStreaming(func(m *Message) bool {
			return m.Placeholder && m.Role == RoleAgent && (!hasRunKey(ev.Envelope) || m.correlates(ev.Envelope))
		}); p != nil {
			r.adopt(p, ev)
			return
		}

		if prev := r.latestStreaming(func(m *Message) bool {
			return m.Role == RoleAgent && (!hasRunKey(ev.Envelope) || m.correlates(ev.Envelope))
		}); prev != nil {
			slog.Warn("[conversation] message start while another agent message is streaming, finalizing previous",
				"previous_id", prev.Id, "message_id", ev.MessageId, "run_id", ev.RunKey())
			prev.IsStreaming = false
		}
	}

	m := Message{
		Id:          ev.MessageId,
		Role:        role,
		IsStreaming: true,
		TaskId:      ev.TaskId,
		RunId:       ev.RunId,
	}
	r.Append(m)
}

func (r *MessageReducer) adopt(p *Message, ev *TextMessageStartEvent) {
	if ev.MessageId != "" && ev.MessageId != p.Id {
		delete(r.byId, p.Id)
		p.Id = ev.MessageId
		r.byId[p.Id] = p
	}
	p.Placeholder = false
	p.bind(ev.Envelope)
}

func (r *MessageReducer) Content(ev *TextMessageContentEvent) {
	m := r.locate(ev.Envelope, ev.MessageId)
	if m == nil {
		slog.Warn("[conversation] dropping content delta without a streaming message",
			"message_id", ev.MessageId, "run_id", ev.RunKey())
		return
	}
	if !m.IsStreaming {
		slog.Warn("[conversation] dropping content delta for finalized message", "message_id", m.Id)
		return
	}
	m.Content += ev.Delta
	if ev.Delta != "" {
		m.Placeholder = false
	}
	m.bind(ev.Envelope)
}

func (r *MessageReducer) End(ev *TextMessageEndEvent) {
	m := r.locate(ev.Envelope, ev.MessageId)
	if m == nil {
		slog.Debug("[conversation] message end for unknown message", "message_id", ev.MessageId)
		return
	}
	m.IsStreaming = false
}

// locate resolves the target of a content or end event: exact id first, then
// the most recent streaming message of the same run, then the most recent
// streaming agent message when the event carries no correlation at all.
func (r *MessageReducer) locate(env Envelope, id MessageId) *Message {
	if id != "" {
		return r.byId[id]
	}
	if hasRunKey(env) {
		return r.latestStreaming(func(m *Message) bool { return m.correlates(env) })
	}
	return r.latestStreaming(func(m *Message) bool { return m.Role == RoleAgent })
}

func (r *MessageReducer) latestStreaming(match func(m *Message) bool) *Message {
	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.order[i]
		if m.IsStreaming && match(m) {
			return m
		}
	}
	return nil
}

// FinalizeAll stops every streaming message. Placeholders that never received
// content are removed. It returns the number of messages finalized.
func (r *MessageReducer) FinalizeAll() int {
	n := 0
	kept := r.order[:0]
	for _, m := range r.order {
		if m.IsStreaming {
			n++
			m.IsStreaming = false
			if m.Placeholder && m.Content == "" {
				delete(r.byId, m.Id)
				continue
			}
		}
		kept = append(kept, m)
	}
	clear(r.order[len(kept):])
	r.order = kept
	return n
}

// StreamingAgentMessages returns how many agent messages of run are streaming.
func (r *MessageReducer) StreamingAgentMessages(run RunId) int {
	env := Envelope{RunId: run}
	n := 0
	for _, m := range r.order {
		if m.IsStreaming && m.Role == RoleAgent && m.correlates(env) {
			n++
		}
	}
	return n
}
