package conversation

import (
	"fmt"
	"log/slog"
)

// Apply decodes and dispatches one raw frame.
func (c *Conversation) Apply(frame []byte) (bool, error) {
	ev, err := Decode(frame)
	if err != nil {
		return false, fmt.Errorf("failed to decode frame: %w", err)
	}
	return c.Dispatch(ev), nil
}

// Dispatch routes ev to the reducer that owns it. It reports whether the
// state may have changed.
func (c *Conversation) Dispatch(ev Event) bool {
	h := ev.header()
	if !c.inScope(h) {
		slog.Debug("[conversation] dropping out of scope event",
			"type", h.Type, "thread_id", h.ThreadId, "scope", c.scope.Thread)
		return false
	}

	switch e := ev.(type) {
	case *RunStartedEvent:
		c.run.Started(e)
	case *RunFinishedEvent:
		c.run.Finished(e)
		c.messages.FinalizeAll()
	case *RunErrorEvent:
		c.run.Failed(e)
		c.messages.FinalizeAll()
		c.AppendSystem(fmt.Sprintf("Run failed: %s", e.Error))
	case *TextMessageStartEvent:
		c.messages.Start(e)
	case *TextMessageContentEvent:
		c.messages.Content(e)
	case *TextMessageEndEvent:
		c.messages.End(e)
	case *ToolCallStartEvent:
		return c.toolCalls.Start(e)
	case *ToolCallArgsEvent:
		return c.toolCalls.Args(e)
	case *ToolCallEndEvent:
		return c.toolCalls.End(e)
	case *ToolCallResultEvent:
		return c.toolCalls.Result(e)
	case *ThinkingStartEvent:
		t := c.thinking.Start(e)
		if c.opt.onThinking != nil {
			c.opt.onThinking(t.Key, t.Generation)
		}
	case *ThinkingContentEvent:
		return c.thinking.Content(e)
	case *ThinkingEndEvent:
		return c.thinking.End(e)
	case *CustomEvent:
		if handler, ok := c.opt.extensions[e.CustomType]; ok {
			return handler(c, e)
		}
		slog.Debug("[conversation] no handler for custom event", "custom_type", e.CustomType)
		return false
	case *UnknownEvent:
		slog.Debug("[conversation] ignoring unknown event", "type", e.Type)
		return false
	default:
		return false
	}

	return true
}

func (c *Conversation) inScope(h Envelope) bool {
	if h.ThreadId == "" || c.scope.Thread == "" {
		return true
	}
	return h.ThreadId == c.scope.Thread
}
