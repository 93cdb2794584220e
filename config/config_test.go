package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfigFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  base_url: https://agents.example.com
default_agent: planner
transport:
  type: websocket
  reconnect:
    max_interval: 5s
thinking_timeout: 10s
`), 0o644))

	c, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://agents.example.com", c.Server.BaseURL)
	assert.Equal(t, DefaultStreamPath, c.Server.StreamPath)
	assert.Equal(t, "planner", c.DefaultAgent)
	assert.Equal(t, "websocket", c.Transport.Type)
	assert.Equal(t, 5*time.Second, c.Transport.Reconnect.MaxInterval)
	assert.Equal(t, 500*time.Millisecond, c.Transport.Reconnect.InitialInterval)
	assert.Equal(t, 10*time.Second, c.ThinkingTimeout)
	assert.Equal(t, 8, c.ApprovalWorkers)
}

func TestLoadConfigFromMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TOKKICHAT_API_KEY", "from-env")

	c, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BootstrapConfig().Server.BaseURL, c.Server.BaseURL)
	assert.Equal(t, "from-env", c.Server.ApiKey)
}

func TestLoadConfigFromInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("transport: [1"), 0o644))
	_, err := LoadConfigFrom(bad)
	require.ErrorContains(t, err, "failed to unmarshal")

	wrongType := filepath.Join(dir, "wrong.yaml")
	require.NoError(t, os.WriteFile(wrongType, []byte("transport:\n  type: carrier-pigeon\n"), 0o644))
	_, err = LoadConfigFrom(wrongType)
	require.ErrorContains(t, err, "unsupported transport type")
}

func TestBootstrapConfigRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(BootstrapConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	c, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, BootstrapConfig(), c)
}
