package chat

import (
	"context"
	"fmt"
	"io"

	"github.com/ryanreadbooks/tokkichat/backend/factory"
	"github.com/ryanreadbooks/tokkichat/channel"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/sse"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/ws"
	chmodel "github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/handlers"
	"github.com/ryanreadbooks/tokkichat/config"
	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/journal"
	"github.com/ryanreadbooks/tokkichat/pkg/process"
	"github.com/ryanreadbooks/tokkichat/session"
)

type prepared struct {
	handler   *handlers.SessionHandler
	notifier  *handlers.Notifier
	transport chmodel.Type
	logFile   io.Closer
	journal   io.Closer
	stop      context.CancelFunc
	done      <-chan struct{}
}

// close stops the session and waits for it to release the stream
func (p *prepared) close() {
	p.stop()
	<-p.done
	if p.journal != nil {
		_ = p.journal.Close()
	}
	_ = p.logFile.Close()
}

func newBus(cfg config.Config) *channel.Bus {
	bus := channel.NewBus()
	bus.Register(sse.New(sse.Config{
		BaseURL:    cfg.Server.BaseURL,
		StreamPath: cfg.Server.StreamPath,
		ApiKey:     cfg.Server.ApiKey,
	}))
	bus.Register(ws.New(ws.Config{
		BaseURL:    cfg.Server.BaseURL,
		StreamPath: cfg.Server.StreamPath,
		ApiKey:     cfg.Server.ApiKey,
	}))
	return bus
}

func prepareSession(ctx context.Context, agentId, threadId string) (
	p *prepared,
	err error,
) {
	cfg, err := config.LoadConfig()
	if err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		return
	}
	if transportType != "" {
		cfg.Transport.Type = transportType
	}
	if agentId == "" {
		agentId = cfg.DefaultAgent
	}

	logFile, err := config.SetupLogger(cfg.Log)
	if err != nil {
		err = fmt.Errorf("failed to setup logger: %w", err)
		return
	}

	notifier := handlers.NewNotifier()
	transport := chmodel.Type(cfg.Transport.Type)
	if transport == "" {
		transport = chmodel.SSE
	}

	ch, err := newBus(cfg).Channel(transport,
		channel.WithBackoff(cfg.Transport.Reconnect.InitialInterval, cfg.Transport.Reconnect.MaxInterval),
		channel.WithAttemptsPerMinute(cfg.Transport.Reconnect.MaxAttemptsPerMinute),
		channel.WithStatusHandler(notifier.OnStatus),
	)
	if err != nil {
		_ = logFile.Close()
		err = fmt.Errorf("failed to create channel: %w", err)
		return
	}

	b, err := factory.NewBackend(
		factory.WithBaseURL(cfg.Server.BaseURL),
		factory.WithAPIKey(cfg.Server.ApiKey),
		factory.WithTimeout(cfg.Server.Timeout),
	)
	if err != nil {
		_ = logFile.Close()
		err = fmt.Errorf("failed to create backend: %w", err)
		return
	}

	opts := []session.Option{
		session.WithThinkingTimeout(cfg.ThinkingTimeout),
		session.WithWorkers(cfg.ApprovalWorkers),
		session.WithChangeHandler(notifier.OnChange),
	}
	var jr *journal.Journal
	if record {
		jr = journal.New(config.GetWorkspaceDir())
		opts = append(opts, session.WithRecorder(jr))
	}

	sess, err := session.New(ch, b, opts...)
	if err != nil {
		_ = logFile.Close()
		err = fmt.Errorf("failed to create session: %w", err)
		return
	}

	sessCtx, stop := context.WithCancel(ctx)
	process.Track(ctx, sess.Done())
	go func() {
		_ = sess.Run(sessCtx)
		stop()
	}()

	p = &prepared{
		handler:   handlers.NewSessionHandler(sessCtx, sess, agentId),
		notifier:  notifier,
		transport: transport,
		logFile:   logFile,
		stop:      stop,
		done:      sess.Done(),
	}
	if jr != nil {
		p.journal = jr
	}

	err = sess.SwitchThread(sessCtx, conversation.Scope{
		AgentId: agentId,
		Thread:  conversation.ThreadId(threadId),
	})
	if err != nil {
		p.close()
		p = nil
		err = fmt.Errorf("failed to subscribe thread: %w", err)
	}
	return
}
