package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Decode turns one raw frame into its variant. Field access goes through gjson
// so that loosely typed fields (a result that is an object, an error that is a
// string or an object) never fail the whole frame.
func Decode(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedFrame)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedFrame)
	}

	typ := root.Get("type").String()
	if typ == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	env := Envelope{
		Type:     EventType(typ),
		ThreadId: ThreadId(root.Get("thread_id").String()),
		RunId:    RunId(root.Get("run_id").String()),
		TaskId:   TaskId(root.Get("task_id").String()),
	}

	switch env.Type {
	case EventRunStarted:
		return &RunStartedEvent{Envelope: env}, nil
	case EventRunFinished:
		return &RunFinishedEvent{Envelope: env}, nil
	case EventRunError:
		return &RunErrorEvent{Envelope: env, Error: firstString(root, "error", "message")}, nil
	case EventTextMessageStart:
		return &TextMessageStartEvent{
			Envelope:  env,
			MessageId: MessageId(root.Get("message_id").String()),
			Role:      root.Get("role").String(),
		}, nil
	case EventTextMessageContent:
		return &TextMessageContentEvent{
			Envelope:  env,
			MessageId: MessageId(root.Get("message_id").String()),
			Delta:     root.Get("delta").String(),
		}, nil
	case EventTextMessageEnd:
		return &TextMessageEndEvent{Envelope: env, MessageId: MessageId(root.Get("message_id").String())}, nil
	case EventToolCallStart:
		return &ToolCallStartEvent{
			Envelope:        env,
			ToolCallId:      ToolCallId(root.Get("tool_call_id").String()),
			ToolName:        firstString(root, "tool_name", "tool_call_name"),
			ParentMessageId: MessageId(root.Get("parent_message_id").String()),
		}, nil
	case EventToolCallArgs:
		return &ToolCallArgsEvent{
			Envelope:   env,
			ToolCallId: ToolCallId(root.Get("tool_call_id").String()),
			ArgsDelta:  firstString(root, "args_delta", "delta"),
		}, nil
	case EventToolCallEnd:
		return &ToolCallEndEvent{Envelope: env, ToolCallId: ToolCallId(root.Get("tool_call_id").String())}, nil
	case EventToolCallResult:
		errField := root.Get("error")
		ev := &ToolCallResultEvent{
			Envelope:   env,
			ToolCallId: ToolCallId(root.Get("tool_call_id").String()),
			Result:     firstString(root, "result", "content"),
			IsError:    root.Get("is_error").Bool(),
		}
		if errField.Exists() && errField.Type != gjson.Null && errField.Type != gjson.False {
			ev.Error = errField.String()
		}
		return ev, nil
	case EventThinkingStart, EventThinkingContent, EventThinkingEnd:
		return decodeThinking(env, env.Type, root), nil
	case EventCustom:
		return decodeCustom(env, root, data), nil
	}

	return &UnknownEvent{Envelope: env, Raw: json.RawMessage(data)}, nil
}

// decodeCustom maps the thinking custom types onto the native thinking events.
// Their fields may sit at the top level or be nested under "value".
func decodeCustom(env Envelope, root gjson.Result, data []byte) Event {
	customType := firstString(root, "customType", "custom_type", "name")
	value := root.Get("value")

	var native EventType
	switch strings.ToLower(customType) {
	case CustomThinkingStart:
		native = EventThinkingStart
	case CustomThinkingContent:
		native = EventThinkingContent
	case CustomThinkingEnd:
		native = EventThinkingEnd
	}

	if native != "" {
		if value.IsObject() {
			if env.RunId == "" {
				env.RunId = RunId(value.Get("run_id").String())
			}
			if env.TaskId == "" {
				env.TaskId = TaskId(value.Get("task_id").String())
			}
			if env.ThreadId == "" {
				env.ThreadId = ThreadId(value.Get("thread_id").String())
			}
		}
		merged := root
		if !root.Get("thinking_id").Exists() && !root.Get("delta").Exists() && value.IsObject() {
			merged = value
		}
		return decodeThinking(env, native, merged)
	}

	ev := &CustomEvent{
		Envelope:   env,
		CustomType: customType,
		Raw:        json.RawMessage(data),
	}
	if value.Exists() {
		ev.Value = json.RawMessage(value.Raw)
	}
	return ev
}

func decodeThinking(env Envelope, typ EventType, r gjson.Result) Event {
	env.Type = typ
	id := ThinkingId(r.Get("thinking_id").String())
	switch typ {
	case EventThinkingStart:
		return &ThinkingStartEvent{Envelope: env, ThinkingId: id}
	case EventThinkingContent:
		return &ThinkingContentEvent{Envelope: env, ThinkingId: id, Delta: r.Get("delta").String()}
	default:
		return &ThinkingEndEvent{Envelope: env, ThinkingId: id}
	}
}

// firstString returns the first present field. Non string values come back as
// their raw json text.
func firstString(r gjson.Result, fields ...string) string {
	for _, f := range fields {
		if v := r.Get(f); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return ""
}
