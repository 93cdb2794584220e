package conversation

import "encoding/json"

type EventType string

const (
	EventRunStarted         EventType = "RUN_STARTED"
	EventRunFinished        EventType = "RUN_FINISHED"
	EventRunError           EventType = "RUN_ERROR"
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventToolCallStart      EventType = "TOOL_CALL_START"
	EventToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd        EventType = "TOOL_CALL_END"
	EventToolCallResult     EventType = "TOOL_CALL_RESULT"
	EventThinkingStart      EventType = "THINKING_START"
	EventThinkingContent    EventType = "THINKING_CONTENT"
	EventThinkingEnd        EventType = "THINKING_END"
	EventCustom             EventType = "CUSTOM"
)

// Custom types carried inside a CUSTOM envelope that are understood natively.
const (
	CustomThinkingStart   = "thinking_start"
	CustomThinkingContent = "thinking_content"
	CustomThinkingEnd     = "thinking_end"
)

// Envelope holds the fields every frame may carry.
type Envelope struct {
	Type     EventType `json:"type"`
	ThreadId ThreadId  `json:"thread_id,omitempty"`
	RunId    RunId     `json:"run_id,omitempty"`
	TaskId   TaskId    `json:"task_id,omitempty"`
}

// RunKey returns the run correlation of the frame. The server may send either
// key for the same run, so task id is used when run id is absent.
func (e Envelope) RunKey() RunId {
	if e.RunId != "" {
		return e.RunId
	}
	return RunId(e.TaskId)
}

func (e Envelope) header() Envelope { return e }

// Event is the closed set of decoded frames.
type Event interface {
	header() Envelope
	isEvent()
}

// Header returns the common fields of ev.
func Header(ev Event) Envelope { return ev.header() }

type RunStartedEvent struct {
	Envelope
}

type RunFinishedEvent struct {
	Envelope
}

type RunErrorEvent struct {
	Envelope
	Error string `json:"error"`
}

type TextMessageStartEvent struct {
	Envelope
	MessageId MessageId `json:"message_id"`
	Role      string    `json:"role,omitempty" jsonschema:"enum=agent,enum=assistant,enum=user,enum=system"`
}

type TextMessageContentEvent struct {
	Envelope
	MessageId MessageId `json:"message_id,omitempty"`
	Delta     string    `json:"delta"`
}

type TextMessageEndEvent struct {
	Envelope
	MessageId MessageId `json:"message_id,omitempty"`
}

type ToolCallStartEvent struct {
	Envelope
	ToolCallId      ToolCallId `json:"tool_call_id"`
	ToolName        string     `json:"tool_name"`
	ParentMessageId MessageId  `json:"parent_message_id,omitempty"`
}

type ToolCallArgsEvent struct {
	Envelope
	ToolCallId ToolCallId `json:"tool_call_id"`
	ArgsDelta  string     `json:"args_delta"`
}

type ToolCallEndEvent struct {
	Envelope
	ToolCallId ToolCallId `json:"tool_call_id"`
}

type ToolCallResultEvent struct {
	Envelope
	ToolCallId ToolCallId `json:"tool_call_id"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// Failed reports whether the tool execution failed.
func (e *ToolCallResultEvent) Failed() bool {
	return e.IsError || e.Error != ""
}

type ThinkingStartEvent struct {
	Envelope
	ThinkingId ThinkingId `json:"thinking_id,omitempty"`
}

type ThinkingContentEvent struct {
	Envelope
	ThinkingId ThinkingId `json:"thinking_id,omitempty"`
	Delta      string     `json:"delta"`
}

type ThinkingEndEvent struct {
	Envelope
	ThinkingId ThinkingId `json:"thinking_id,omitempty"`
}

func (e *ThinkingStartEvent) Key() ThinkingKey {
	return ThinkingKey{ThinkingId: e.ThinkingId, RunId: e.RunKey()}
}

func (e *ThinkingContentEvent) Key() ThinkingKey {
	return ThinkingKey{ThinkingId: e.ThinkingId, RunId: e.RunKey()}
}

func (e *ThinkingEndEvent) Key() ThinkingKey {
	return ThinkingKey{ThinkingId: e.ThinkingId, RunId: e.RunKey()}
}

// CustomEvent is a CUSTOM frame whose customType is not handled natively.
type CustomEvent struct {
	Envelope
	CustomType string          `json:"customType"`
	Value      json.RawMessage `json:"value,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// UnknownEvent is a well-formed frame with an unrecognised type.
type UnknownEvent struct {
	Envelope
	Raw json.RawMessage `json:"-"`
}

func (*RunStartedEvent) isEvent()         {}
func (*RunFinishedEvent) isEvent()        {}
func (*RunErrorEvent) isEvent()           {}
func (*TextMessageStartEvent) isEvent()   {}
func (*TextMessageContentEvent) isEvent() {}
func (*TextMessageEndEvent) isEvent()     {}
func (*ToolCallStartEvent) isEvent()      {}
func (*ToolCallArgsEvent) isEvent()       {}
func (*ToolCallEndEvent) isEvent()        {}
func (*ToolCallResultEvent) isEvent()     {}
func (*ThinkingStartEvent) isEvent()      {}
func (*ThinkingContentEvent) isEvent()    {}
func (*ThinkingEndEvent) isEvent()        {}
func (*CustomEvent) isEvent()             {}
func (*UnknownEvent) isEvent()            {}

// WireTypes lists one zero value per frame shape, used to publish the schema.
func WireTypes() map[EventType]any {
	return map[EventType]any{
		EventRunStarted:         RunStartedEvent{},
		EventRunFinished:        RunFinishedEvent{},
		EventRunError:           RunErrorEvent{},
		EventTextMessageStart:   TextMessageStartEvent{},
		EventTextMessageContent: TextMessageContentEvent{},
		EventTextMessageEnd:     TextMessageEndEvent{},
		EventToolCallStart:      ToolCallStartEvent{},
		EventToolCallArgs:       ToolCallArgsEvent{},
		EventToolCallEnd:        ToolCallEndEvent{},
		EventToolCallResult:     ToolCallResultEvent{},
		EventThinkingStart:      ThinkingStartEvent{},
		EventThinkingContent:    ThinkingContentEvent{},
		EventThinkingEnd:        ThinkingEndEvent{},
		EventCustom:             CustomEvent{},
	}
}
