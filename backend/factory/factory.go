package factory

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ryanreadbooks/tokkichat/backend"
	"github.com/ryanreadbooks/tokkichat/backend/a2a"
)

const (
	DefaultAPIKeyEnv  = "TOKKICHAT_API_KEY"
	DefaultBaseURLEnv = "TOKKICHAT_BASE_URL"
)

type Protocol string

const (
	ProtocolA2A Protocol = "a2a"
)

func DefaultOption() option {
	return option{
		protocol: ProtocolA2A,
		apiKey:   os.Getenv(DefaultAPIKeyEnv),
		baseURL:  os.Getenv(DefaultBaseURLEnv),
		timeout:  30 * time.Second,
	}
}

type option struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	protocol Protocol
}

func (o *option) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

type Option func(*option)

func WithProtocol(protocol Protocol) Option {
	return func(o *option) {
		o.protocol = protocol
	}
}

// WithAPIKey overrides the environment only when key is set.
func WithAPIKey(apiKey string) Option {
	return func(o *option) {
		if apiKey != "" {
			o.apiKey = apiKey
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(o *option) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *option) {
		o.timeout = timeout
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *option) {
		o.httpClient = c
	}
}

func NewBackend(opts ...Option) (backend.Backend, error) {
	o := DefaultOption()
	o.apply(opts...)

	switch o.protocol {
	case ProtocolA2A:
		return a2a.New(a2a.Config{
			BaseURL: o.baseURL,
			ApiKey:  o.apiKey,
			Timeout: o.timeout,
			Client:  o.httpClient,
		})
	case "":
		return nil, fmt.Errorf("protocol is required")
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", o.protocol)
	}
}
