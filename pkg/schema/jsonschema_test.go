package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Header struct {
	Kind string `json:"kind"`
}

type sample struct {
	Header
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

func TestGet(t *testing.T) {
	s := Get[sample]()
	assert.ElementsMatch(t, []string{"kind", "name"}, s.Required)

	data, err := json.Marshal(s.Properties)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind"`)
	assert.Contains(t, string(data), `"count"`)
}
