package conversation

import (
	"log/slog"
	"time"
)

// ThinkingIndicator is a transient message shown while the agent reasons.
type ThinkingIndicator struct {
	Message
	Key ThinkingKey

	// Generation distinguishes a restarted indicator from the one it replaced,
	// so a stale cleanup timer cannot remove the new one.
	Generation uint64
}

type ThinkingReducer struct {
	byKey map[ThinkingKey]*ThinkingIndicator
	order []*ThinkingIndicator
	gen   uint64
	now   func() time.Time
}

func NewThinkingReducer(now func() time.Time) *ThinkingReducer {
	if now == nil {
		now = time.Now
	}
	return &ThinkingReducer{
		byKey: make(map[ThinkingKey]*ThinkingIndicator),
		now:   now,
	}
}

func (r *ThinkingReducer) Reset() {
	r.byKey = make(map[ThinkingKey]*ThinkingIndicator)
	r.order = nil
}

func (r *ThinkingReducer) Get(key ThinkingKey) (*ThinkingIndicator, bool) {
	t, ok := r.byKey[key]
	return t, ok
}

func (r *ThinkingReducer) List() []*ThinkingIndicator {
	return r.order
}

// Start replaces any indicator with the same key and returns the new one.
func (r *ThinkingReducer) Start(ev *ThinkingStartEvent) *ThinkingIndicator {
	key := ev.Key()
	r.remove(key)

	r.gen++
	t := &ThinkingIndicator{
		Message: Message{
			Id:          MessageId("thinking:" + key.String()),
			Role:        RoleThinking,
			IsStreaming: true,
			TaskId:      ev.TaskId,
			RunId:       ev.RunKey(),
			Timestamp:   r.now(),
		},
		Key:        key,
		Generation: r.gen,
	}
	r.byKey[key] = t
	r.order = append(r.order, t)
	return t
}

func (r *ThinkingReducer) Content(ev *ThinkingContentEvent) bool {
	t, ok := r.byKey[ev.Key()]
	if !ok {
		slog.Debug("[conversation] thinking content for unknown indicator", "key", ev.Key().String())
		return false
	}
	t.Content += ev.Delta
	return true
}

func (r *ThinkingReducer) End(ev *ThinkingEndEvent) bool {
	return r.remove(ev.Key())
}

// Expire removes the indicator only if it is still the same generation.
func (r *ThinkingReducer) Expire(key ThinkingKey, generation uint64) bool {
	t, ok := r.byKey[key]
	if !ok || t.Generation != generation {
		return false
	}
	slog.Debug("[conversation] thinking indicator expired", "key", key.String())
	return r.remove(key)
}

func (r *ThinkingReducer) remove(key ThinkingKey) bool {
	t, ok := r.byKey[key]
	if !ok {
		return false
	}
	delete(r.byKey, key)
	for i, o := range r.order {
		if o == t {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}
