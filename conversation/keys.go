package conversation

// Correlation keys. They are plain strings on the wire; distinct types keep a
// message id from being passed where a tool call id is expected.
type (
	ThreadId   string
	RunId      string
	TaskId     string
	MessageId  string
	ToolCallId string
	ThinkingId string
)

func (t ThreadId) String() string   { return string(t) }
func (t ThreadId) IsZero() bool     { return t == "" }
func (r RunId) String() string      { return string(r) }
func (r RunId) IsZero() bool        { return r == "" }
func (t TaskId) String() string     { return string(t) }
func (t TaskId) IsZero() bool       { return t == "" }
func (m MessageId) String() string  { return string(m) }
func (m MessageId) IsZero() bool    { return m == "" }
func (t ToolCallId) String() string { return string(t) }
func (t ToolCallId) IsZero() bool   { return t == "" }
func (t ThinkingId) String() string { return string(t) }
func (t ThinkingId) IsZero() bool   { return t == "" }

// ThinkingKey identifies a thinking indicator. The same thinking id may be
// reused by different runs.
type ThinkingKey struct {
	ThinkingId ThinkingId
	RunId      RunId
}

func (k ThinkingKey) String() string {
	return string(k.RunId) + "/" + string(k.ThinkingId)
}

// Scope is the active subscription. Only events for Thread are applied.
type Scope struct {
	AgentId string
	Thread  ThreadId
}

func (s Scope) IsZero() bool { return s.Thread.IsZero() }

func (s Scope) String() string {
	return s.AgentId + ":" + string(s.Thread)
}
