package local

import (
	"context"
	"sync"

	"github.com/ryanreadbooks/tokkichat/channel/adapter"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/pkg/xstring"
)

// Adapter is an in-process event source. Frames are pushed by the caller,
// e.g. from a recorded session or a test.
type Adapter struct {
	frames chan []byte

	closeOnce sync.Once
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(buffer int) *Adapter {
	return &Adapter{
		frames: make(chan []byte, buffer),
	}
}

func (a *Adapter) Type() model.Type { return model.Local }

// Push queues one frame. It blocks when the buffer is full.
func (a *Adapter) Push(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case a.frames <- data:
		return nil
	}
}

func (a *Adapter) PushString(ctx context.Context, s string) error {
	return a.Push(ctx, xstring.ToBytes(s))
}

// Close marks the end of input. Stream returns ErrEndOfStream once every
// queued frame has been delivered.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() {
		close(a.frames)
	})
}

func (a *Adapter) Stream(ctx context.Context, sub model.Subscription, sink adapter.Sink) error {
	sink.Connected()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-a.frames:
			if !ok {
				return adapter.ErrEndOfStream
			}
			sink.Frame(data)
		}
	}
}
