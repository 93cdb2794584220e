package sse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/ryanreadbooks/tokkichat/channel/adapter"
	"github.com/ryanreadbooks/tokkichat/channel/model"
)

type Config struct {
	BaseURL    string
	StreamPath string
	ApiKey     string
	Client     *http.Client
}

// Adapter subscribes to the event stream over server-sent events. Each data
// field carries one json frame.
type Adapter struct {
	c Config
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(c Config) *Adapter {
	if c.Client == nil {
		// no timeout, the stream is long lived
		c.Client = &http.Client{}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return &Adapter{c: c}
}

func (a *Adapter) Type() model.Type { return model.SSE }

func (a *Adapter) Stream(ctx context.Context, sub model.Subscription, sink adapter.Sink) error {
	endpoint := a.c.BaseURL + sub.Path(a.c.StreamPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if a.c.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.c.ApiKey)
	}

	resp, err := a.c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return fmt.Errorf("event stream returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	dec := ssestream.NewDecoder(resp)
	if dec == nil {
		_ = resp.Body.Close()
		return fmt.Errorf("event stream has no body")
	}
	defer dec.Close()

	sink.Connected()
	for dec.Next() {
		data := bytes.TrimSpace(dec.Event().Data)
		if len(data) == 0 {
			continue
		}
		sink.Frame(bytes.Clone(data))
	}

	if err := dec.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	return nil
}
