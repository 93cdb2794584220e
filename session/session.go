package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/ryanreadbooks/tokkichat/backend"
	"github.com/ryanreadbooks/tokkichat/channel"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/pkg/safe"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoThread     = errors.New("no thread selected")
	ErrClosed       = errors.New("session closed")
	ErrRunning      = errors.New("session already running")
)

// Recorder keeps the frames of a thread, for example to inspect them later.
type Recorder interface {
	Append(scope conversation.Scope, data []byte) error
}

// Session serializes everything that touches the conversation onto one
// goroutine: stream frames, user actions, request completions and timers.
type Session struct {
	opt     *option
	conv    *conversation.Conversation
	ch      *channel.Channel
	backend backend.Backend
	pool    *ants.Pool

	actions chan func()
	done    chan struct{}
	running atomic.Bool

	// owned by the loop goroutine
	ctx    context.Context
	scope  conversation.Scope
	epoch  uint64
	timers map[conversation.ThinkingKey]thinkingTimer
}

type thinkingTimer struct {
	timer      *time.Timer
	generation uint64
}

func New(ch *channel.Channel, b backend.Backend, opts ...Option) (*Session, error) {
	opt := DefaultOption()
	opt.apply(opts...)

	pool, err := ants.NewPool(opt.workers,
		ants.WithPanicHandler(func(p any) {
			slog.Error("[session] worker panic", "error", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	s := &Session{
		opt:     opt,
		ch:      ch,
		backend: b,
		pool:    pool,
		actions: make(chan func(), 16),
		done:    make(chan struct{}),
		timers:  make(map[conversation.ThinkingKey]thinkingTimer),
	}

	convOpts := append([]conversation.Option{
		conversation.WithThinkingStarted(s.armThinkingTimer),
		conversation.WithToolCallObserver(func(t conversation.Transition) {
			slog.Debug("[session] tool call transition", "tool_call_id", t.Id, "from", t.From, "to", t.To)
		}),
	}, opt.convOpts...)
	s.conv = conversation.New(convOpts...)

	return s, nil
}

// Run processes events until ctx is done. It can be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	s.ctx = ctx
	defer func() {
		s.stopTimers()
		s.ch.Close()
		s.pool.Release()
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-s.ch.Frames():
			s.handleFrame(f)
		case fn := <-s.actions:
			fn()
		}
	}
}

func (s *Session) handleFrame(f *model.Frame) {
	if f.Epoch != s.epoch {
		// left over from a previous subscription
		return
	}
	changed, err := s.conv.Apply(f.Data)
	if err != nil {
		slog.Debug("[session] dropping frame", "scope", f.Scope.String(), "error", err)
		return
	}
	s.record(f.Data)
	if changed {
		s.publish()
	}
}

func (s *Session) publish() {
	if s.opt.onChange == nil {
		return
	}
	snap, err := s.conv.Snapshot()
	if err != nil {
		slog.Error("[session] failed to snapshot conversation", "error", err)
		return
	}
	s.opt.onChange(snap)
}

// post queues fn on the loop without waiting for it.
func (s *Session) post(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

// do runs fn on the loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	select {
	case s.actions <- func() { errCh <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// SwitchThread drops all state and subscribes to the stream of scope.
func (s *Session) SwitchThread(ctx context.Context, scope conversation.Scope) error {
	if scope.IsZero() {
		return ErrNoThread
	}
	return s.do(ctx, func() error {
		s.stopTimers()
		s.scope = scope
		s.conv.SetScope(scope)
		s.epoch, _ = s.ch.Open(s.ctx, model.Subscription{
			AgentId:  scope.AgentId,
			ThreadId: scope.Thread.String(),
		})
		slog.Info("[session] switched thread", "agent_id", scope.AgentId, "thread_id", scope.Thread)
		s.publish()
		return nil
	})
}

// Send records the user message at once and starts the run in the
// background. A failed request shows up as a system message.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	return s.do(ctx, func() error {
		if s.scope.IsZero() {
			return ErrNoThread
		}

		id := conversation.MessageId(uuid.Must(uuid.NewV7()).String())
		s.conv.AppendUser(id, text)
		s.recordUser(id, text)
		s.publish()

		req := &backend.SendRequest{
			AgentId:   s.scope.AgentId,
			ThreadId:  s.scope.Thread.String(),
			MessageId: id.String(),
			Text:      text,
		}
		epoch := s.epoch
		done := func(resp *backend.SendResponse, err error) {
			s.post(func() {
				if epoch != s.epoch {
					return
				}
				if err != nil {
					slog.Error("[session] failed to send message", "thread_id", req.ThreadId, "error", err)
					s.conv.SendFailed(err)
				} else {
					s.conv.SendSucceeded(conversation.TaskId(resp.TaskId))
				}
				s.publish()
			})
		}
		s.submit(func() {
			done(s.backend.SendMessage(s.ctx, req))
		}, func(err error) {
			done(nil, fmt.Errorf("failed to submit send request: %w", err))
		})
		return nil
	})
}

// Approve moves the tool call to executing without waiting for the approval
// request. A failed request is logged and the local state stands.
func (s *Session) Approve(ctx context.Context, id conversation.ToolCallId) error {
	return s.do(ctx, func() error {
		if err := s.conv.ApproveToolCall(id); err != nil {
			return err
		}
		s.fire(id, "approve", s.backend.ApproveToolCall)
		if err := s.conv.ExecuteToolCall(id); err != nil {
			return err
		}
		s.publish()
		return nil
	})
}

func (s *Session) Reject(ctx context.Context, id conversation.ToolCallId) error {
	return s.do(ctx, func() error {
		if err := s.conv.RejectToolCall(id); err != nil {
			return err
		}
		s.fire(id, "reject", s.backend.RejectToolCall)
		s.publish()
		return nil
	})
}

func (s *Session) fire(id conversation.ToolCallId, decision string, call func(context.Context, string) error) {
	s.submit(func() {
		if err := call(s.ctx, id.String()); err != nil {
			slog.Error("[session] tool call decision failed", "tool_call_id", id, "decision", decision, "error", err)
		}
	}, func(err error) {
		slog.Error("[session] failed to submit tool call decision", "tool_call_id", id, "decision", decision, "error", err)
	})
}

// submit queues task on the worker pool without holding up the loop. A busy
// pool makes the task wait for a free worker, it is only lost once the pool
// is released.
func (s *Session) submit(task func(), failed func(error)) {
	safe.Go(func() {
		if err := s.pool.Submit(task); err != nil {
			failed(err)
		}
	})
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) (*conversation.Snapshot, error) {
	var snap *conversation.Snapshot
	err := s.do(ctx, func() error {
		var err error
		snap, err = s.conv.Snapshot()
		return err
	})
	return snap, err
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) armThinkingTimer(key conversation.ThinkingKey, generation uint64) {
	if old, ok := s.timers[key]; ok {
		old.timer.Stop()
	}
	s.timers[key] = thinkingTimer{
		generation: generation,
		timer: time.AfterFunc(s.opt.thinkingTimeout, func() {
			s.post(func() {
				if cur, ok := s.timers[key]; ok && cur.generation == generation {
					delete(s.timers, key)
				}
				if s.conv.ExpireThinking(key, generation) {
					s.publish()
				}
			})
		}),
	}
}

func (s *Session) stopTimers() {
	for key, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Session) record(data []byte) {
	if s.opt.recorder == nil {
		return
	}
	if err := s.opt.recorder.Append(s.scope, data); err != nil {
		slog.Warn("[session] failed to record frame", "thread_id", s.scope.Thread, "error", err)
	}
}

// recordUser stores a local user message as the frames a server would have
// sent for it.
func (s *Session) recordUser(id conversation.MessageId, text string) {
	if s.opt.recorder == nil {
		return
	}
	thread := s.scope.Thread.String()
	frames := []any{
		conversation.TextMessageStartEvent{
			Envelope:  conversation.Envelope{Type: conversation.EventTextMessageStart, ThreadId: conversation.ThreadId(thread)},
			MessageId: id,
			Role:      string(conversation.RoleUser),
		},
		conversation.TextMessageContentEvent{
			Envelope:  conversation.Envelope{Type: conversation.EventTextMessageContent, ThreadId: conversation.ThreadId(thread)},
			MessageId: id,
			Delta:     text,
		},
		conversation.TextMessageEndEvent{
			Envelope:  conversation.Envelope{Type: conversation.EventTextMessageEnd, ThreadId: conversation.ThreadId(thread)},
			MessageId: id,
		},
	}
	for _, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			slog.Warn("[session] failed to marshal user frame", "error", err)
			return
		}
		s.record(data)
	}
}
