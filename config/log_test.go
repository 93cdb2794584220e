package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "chat.log")
	closer, err := SetupLogger(LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	slog.Debug("[test] hello", "k", "v")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[test] hello")
	assert.Contains(t, string(content), "k=v")
}

func TestSetupLoggerInvalidLevel(t *testing.T) {
	_, err := SetupLogger(LogConfig{Level: "loud", File: "x.log"})
	assert.Error(t, err)

	c := BootstrapConfig()
	c.Log.Level = "loud"
	assert.Error(t, c.Validate())
}
