package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ryanreadbooks/tokkichat/channel/adapter"
	"github.com/ryanreadbooks/tokkichat/channel/model"
)

type Config struct {
	BaseURL    string
	StreamPath string
	ApiKey     string
	Dialer     *websocket.Dialer
}

// Adapter subscribes to the event stream over a websocket. Every text or
// binary message is one json frame.
type Adapter struct {
	c Config
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(c Config) *Adapter {
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	c.BaseURL = toWebSocketURL(strings.TrimRight(c.BaseURL, "/"))
	return &Adapter{c: c}
}

func toWebSocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

func (a *Adapter) Type() model.Type { return model.WebSocket }

func (a *Adapter) Stream(ctx context.Context, sub model.Subscription, sink adapter.Sink) error {
	header := http.Header{}
	if a.c.ApiKey != "" {
		header.Set("Authorization", "Bearer "+a.c.ApiKey)
	}

	conn, resp, err := a.c.Dialer.DialContext(ctx, a.c.BaseURL+sub.Path(a.c.StreamPath), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to dial websocket (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial websocket: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage when the subscription is cancelled
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sink.Connected()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("websocket closed with code %d: %w", closeErr.Code, err)
			}
			return fmt.Errorf("failed to read websocket message: %w", err)
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		sink.Frame(data)
	}
}
