package factory

import (
	"testing"

	"github.com/ryanreadbooks/tokkichat/backend/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend(t *testing.T) {
	t.Setenv(DefaultBaseURLEnv, "http://from-env:8080")

	b, err := NewBackend()
	require.NoError(t, err)
	assert.IsType(t, &a2a.Client{}, b)

	_, err = NewBackend(WithProtocol("grpc"))
	require.ErrorContains(t, err, "unsupported protocol")

	t.Setenv(DefaultBaseURLEnv, "")
	_, err = NewBackend()
	require.ErrorContains(t, err, "base url is required")

	b, err = NewBackend(WithBaseURL("http://127.0.0.1:9"), WithAPIKey(""))
	require.NoError(t, err)
	assert.NotNil(t, b)
}
