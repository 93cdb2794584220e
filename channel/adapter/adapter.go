package adapter

import (
	"context"
	"errors"

	"github.com/ryanreadbooks/tokkichat/channel/model"
)

// ErrEndOfStream is returned by adapters whose source is finite and has been
// fully delivered. The channel does not reconnect after it.
var ErrEndOfStream = errors.New("end of stream")

// Sink receives what an adapter reads. Adapters call it from the goroutine
// running Stream.
type Sink interface {
	// Connected is called once the stream is established.
	Connected()

	// Frame is called for every raw frame, in arrival order.
	Frame(data []byte)
}

type Adapter interface {
	// Type returns the wire kind of the adapter.
	Type() model.Type

	// Stream reads the event stream of sub until it ends, fails or ctx is done.
	// A nil error means the server closed the stream cleanly.
	Stream(ctx context.Context, sub model.Subscription, sink Sink) error
}
