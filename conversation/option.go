package conversation

import "time"

// ExtensionHandler consumes a CUSTOM event whose customType it was registered
// for. It returns whether the conversation changed.
type ExtensionHandler func(c *Conversation, ev *CustomEvent) bool

type option struct {
	now          func() time.Time
	onThinking   func(key ThinkingKey, generation uint64)
	onTransition func(Transition)
	extensions   map[string]ExtensionHandler
}

type Option func(*option)

func DefaultOption() *option {
	return &option{
		now:        time.Now,
		extensions: make(map[string]ExtensionHandler),
	}
}

func (o *option) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *option) {
		o.now = now
	}
}

// WithThinkingStarted is called each time an indicator is (re)started, so the
// owner can arm a cleanup timer for that generation.
func WithThinkingStarted(fn func(key ThinkingKey, generation uint64)) Option {
	return func(o *option) {
		o.onThinking = fn
	}
}

func WithToolCallObserver(fn func(Transition)) Option {
	return func(o *option) {
		o.onTransition = fn
	}
}

func WithExtension(customType string, h ExtensionHandler) Option {
	return func(o *option) {
		o.extensions[customType] = h
	}
}
