package channel

import (
	"time"

	"github.com/ryanreadbooks/tokkichat/channel/model"
)

type option struct {
	initialInterval   time.Duration
	maxInterval       time.Duration
	attemptsPerMinute int
	buffer            int
	onStatus          func(model.Status)
}

type Option func(*option)

func DefaultOption() *option {
	return &option{
		initialInterval:   500 * time.Millisecond,
		maxInterval:       30 * time.Second,
		attemptsPerMinute: 20,
		buffer:            64,
	}
}

func (o *option) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func WithBackoff(initial, max time.Duration) Option {
	return func(o *option) {
		if initial > 0 {
			o.initialInterval = initial
		}
		if max > 0 {
			o.maxInterval = max
		}
	}
}

// WithAttemptsPerMinute caps connection attempts, including the ones that
// follow a stream which connected and then dropped at once.
func WithAttemptsPerMinute(n int) Option {
	return func(o *option) {
		if n > 0 {
			o.attemptsPerMinute = n
		}
	}
}

func WithBuffer(n int) Option {
	return func(o *option) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

func WithStatusHandler(fn func(model.Status)) Option {
	return func(o *option) {
		o.onStatus = fn
	}
}
