package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ryanreadbooks/tokkichat/channel/adapter"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/pkg/safe"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var errStreamClosed = errors.New("event stream closed by server")

// Channel owns the single live subscription to the event stream. Frames of
// every subscription are delivered on Frames, tagged with their scope.
type Channel struct {
	adapter adapter.Adapter
	opt     *option
	frames  chan *model.Frame
	limiter *rate.Limiter

	mu     sync.Mutex
	epoch  uint64
	sub    model.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

func New(a adapter.Adapter, opts ...Option) *Channel {
	opt := DefaultOption()
	opt.apply(opts...)

	return &Channel{
		adapter: a,
		opt:     opt,
		frames:  make(chan *model.Frame, opt.buffer),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opt.attemptsPerMinute)), 2),
	}
}

func (c *Channel) Type() model.Type { return c.adapter.Type() }

func (c *Channel) Frames() <-chan *model.Frame { return c.frames }

// Open subscribes to sub, closing the current subscription first. It returns
// the epoch carried by frames of the new subscription and a channel closed
// when the subscription has stopped for good.
func (c *Channel) Open(ctx context.Context, sub model.Subscription) (uint64, <-chan struct{}) {
	c.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.sub = sub
	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	epoch := c.epoch
	safe.Go(func() {
		defer close(done)
		c.run(subCtx, sub, epoch)
	})

	slog.Debug("[channel] subscription opened", "type", c.adapter.Type(), "scope", sub.String(), "epoch", epoch)
	return epoch, done
}

// Close stops the current subscription and waits for its reader to exit.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel, done, sub := c.cancel, c.done, c.sub
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Debug("[channel] subscription closed", "scope", sub.String())
}

func (c *Channel) run(ctx context.Context, sub model.Subscription, epoch uint64) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opt.initialInterval
	bo.MaxInterval = c.opt.maxInterval
	bo.MaxElapsedTime = 0

	s := &sink{c: c, ctx: ctx, sub: sub, epoch: epoch, bo: bo}

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		s.attempt++
		err := c.adapter.Stream(ctx, sub, s)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, adapter.ErrEndOfStream) {
			return backoff.Permanent(err)
		}
		if err == nil {
			err = errStreamClosed
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		slog.Warn("[channel] event stream interrupted, reconnecting",
			"scope", sub.String(), "attempt", s.attempt, "retry_in", next, "error", err)
		c.status(model.Status{Scope: sub, State: model.StateReconnecting, Attempt: s.attempt, Err: err})
	}

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, adapter.ErrEndOfStream) {
		slog.Error("[channel] event stream stopped", "scope", sub.String(), "error", err)
	}
	c.status(model.Status{Scope: sub, State: model.StateClosed})
}

func (c *Channel) status(st model.Status) {
	if c.opt.onStatus != nil {
		c.opt.onStatus(st)
	}
}

type sink struct {
	c       *Channel
	ctx     context.Context
	sub     model.Subscription
	epoch   uint64
	bo      *backoff.ExponentialBackOff
	attempt int
}

func (s *sink) Connected() {
	s.bo.Reset()
	s.c.status(model.Status{Scope: s.sub, State: model.StateConnected, Attempt: s.attempt})
}

func (s *sink) Frame(data []byte) {
	if !gjson.ValidBytes(data) {
		slog.Debug("[channel] dropping malformed frame", "scope", s.sub.String(), "size", len(data))
		return
	}
	if s.sub.ThreadId != "" {
		if thread := gjson.GetBytes(data, "thread_id").String(); thread != "" && thread != s.sub.ThreadId {
			return
		}
	}

	f := &model.Frame{
		Scope:    s.sub,
		Epoch:    s.epoch,
		Received: time.Now().UnixMilli(),
		Data:     data,
	}
	select {
	case <-s.ctx.Done():
	case s.c.frames <- f:
	}
}
