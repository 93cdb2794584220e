package session

import (
	"time"

	"github.com/ryanreadbooks/tokkichat/conversation"
)

type option struct {
	thinkingTimeout time.Duration
	workers         int
	onChange        func(*conversation.Snapshot)
	convOpts        []conversation.Option
	recorder        Recorder
}

type Option func(*option)

func DefaultOption() *option {
	return &option{
		thinkingTimeout: 30 * time.Second,
		workers:         8,
	}
}

func (o *option) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithThinkingTimeout sets how long a thinking indicator may live without an
// end event.
func WithThinkingTimeout(d time.Duration) Option {
	return func(o *option) {
		if d > 0 {
			o.thinkingTimeout = d
		}
	}
}

// WithWorkers sizes the pool running send and approval requests.
func WithWorkers(n int) Option {
	return func(o *option) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithChangeHandler is called from the session goroutine with a fresh snapshot
// after every change. It must not call back into the session synchronously.
func WithChangeHandler(fn func(*conversation.Snapshot)) Option {
	return func(o *option) {
		o.onChange = fn
	}
}

func WithConversationOptions(opts ...conversation.Option) Option {
	return func(o *option) {
		o.convOpts = append(o.convOpts, opts...)
	}
}

// WithRecorder hands every applied frame of the current thread to r.
func WithRecorder(r Recorder) Option {
	return func(o *option) {
		o.recorder = r
	}
}
