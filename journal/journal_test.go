package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	j := New(t.TempDir())
	t.Cleanup(func() { _ = j.Close() })

	scope := conversation.Scope{AgentId: "helper", Thread: "a/b"}
	other := conversation.Scope{AgentId: "helper", Thread: "c"}

	require.NoError(t, j.Append(scope, []byte("{\n  \"type\": \"RUN_STARTED\"\n}")))
	require.NoError(t, j.Append(other, []byte(`{"type":"RUN_FINISHED"}`)))
	require.NoError(t, j.Append(scope, []byte(`{"type":"RUN_FINISHED"}`)))
	assert.Error(t, j.Append(scope, []byte(`not json`)))
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path(scope))
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"RUN_STARTED\"}\n{\"type\":\"RUN_FINISHED\"}\n", string(content))

	// the thread id never escapes its directory
	assert.Equal(t, filename, filepath.Base(j.Path(scope)))
	assert.Equal(t, "a%2Fb", filepath.Base(filepath.Dir(j.Path(scope))))
	assert.Equal(t, "_", filepath.Base(filepath.Dir(filepath.Dir(j.Path(conversation.Scope{Thread: "x"})))))
}

func TestReopenAppends(t *testing.T) {
	root := t.TempDir()
	scope := conversation.Scope{AgentId: "a", Thread: "t"}

	j := New(root)
	require.NoError(t, j.Append(scope, []byte(`{"type":"RUN_STARTED"}`)))
	require.NoError(t, j.Close())

	j = New(root)
	require.NoError(t, j.Append(scope, []byte(`{"type":"RUN_FINISHED"}`)))
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path(scope))
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"RUN_STARTED\"}\n{\"type\":\"RUN_FINISHED\"}\n", string(content))
}
