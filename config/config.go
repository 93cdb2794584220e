package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultStreamPath = "/agents/{agent_id}/threads/{thread_id}/events"

type ServerConfig struct {
	BaseURL    string        `yaml:"base_url"`
	ApiKey     string        `yaml:"api_key"`
	StreamPath string        `yaml:"stream_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

type ReconnectConfig struct {
	InitialInterval      time.Duration `yaml:"initial_interval"`
	MaxInterval          time.Duration `yaml:"max_interval"`
	MaxAttemptsPerMinute int           `yaml:"max_attempts_per_minute"`
}

type TransportConfig struct {
	Type      string          `yaml:"type"` // sse or websocket
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // relative paths resolve against the workspace dir
}

// The configuration for tokkichat.
type Config struct {
	Server          ServerConfig    `yaml:"server"`
	DefaultAgent    string          `yaml:"default_agent"`
	Transport       TransportConfig `yaml:"transport"`
	ThinkingTimeout time.Duration   `yaml:"thinking_timeout"`
	ApprovalWorkers int             `yaml:"approval_workers"`
	Log             LogConfig       `yaml:"log"`
}

func BootstrapConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:    "http://127.0.0.1:8080",
			StreamPath: DefaultStreamPath,
			Timeout:    30 * time.Second,
		},
		DefaultAgent: "assistant",
		Transport: TransportConfig{
			Type: "sse",
			Reconnect: ReconnectConfig{
				InitialInterval:      500 * time.Millisecond,
				MaxInterval:          30 * time.Second,
				MaxAttemptsPerMinute: 20,
			},
		},
		ThinkingTimeout: 30 * time.Second,
		ApprovalWorkers: 8,
		Log: LogConfig{
			Level: "info",
			File:  "tokkichat.log",
		},
	}
}

// LoadConfig reads the workspace config on top of the defaults. A missing
// file is not an error.
func LoadConfig() (c Config, err error) {
	configPath, err := GetWorkspaceConfigPath()
	if err != nil {
		err = fmt.Errorf("failed to get config path: %w", err)
		return
	}

	return LoadConfigFrom(configPath)
}

func LoadConfigFrom(configPath string) (c Config, err error) {
	c = BootstrapConfig()

	content, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
			c.applyEnv()
			return
		}
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = yaml.Unmarshal(content, &c)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal config file: %w", err)
		return
	}

	c.applyEnv()
	err = c.Validate()
	return
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TOKKICHAT_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("TOKKICHAT_API_KEY"); v != "" {
		c.Server.ApiKey = v
	}
}

func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.StreamPath == "" {
		c.Server.StreamPath = DefaultStreamPath
	}
	switch c.Transport.Type {
	case "", "sse", "websocket":
	default:
		return fmt.Errorf("unsupported transport type %q", c.Transport.Type)
	}
	if c.ThinkingTimeout <= 0 {
		return fmt.Errorf("thinking_timeout must be positive")
	}
	if c.ApprovalWorkers <= 0 {
		return fmt.Errorf("approval_workers must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
