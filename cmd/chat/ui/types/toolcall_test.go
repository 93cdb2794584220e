package types

import (
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestFormatToolCallArgs(t *testing.T) {
	cases := []struct {
		name string
		tool string
		args string
		want string
	}{
		{name: "empty", tool: "x", args: "", want: "(no arguments)"},
		{name: "streaming", tool: "x", args: `{"query":"ca`, want: `{"query":"ca`},
		{name: "shell", tool: "shell", args: `{"command":"ls -la"}`, want: "$ ls -la"},
		{name: "search", tool: "web_search", args: `{"query":"cat facts"}`, want: "🔍 cat facts"},
		{name: "path", tool: "read_file", args: `{"path":"/tmp/a.txt","limit":10}`, want: "/tmp/a.txt, 10 lines"},
		{name: "generic sorted", tool: "x", args: `{"b":2,"a":"one"}`, want: "a: one, b: 2"},
		{name: "no fields", tool: "x", args: `{}`, want: "(no arguments)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatToolCallArgs(tc.tool, tc.args, 100))
		})
	}
}

func TestShortenPath(t *testing.T) {
	assert.Equal(t, ".../dir/file.go", shortenPath("/very/long/path/to/some/dir/file.go", 20))
	assert.Equal(t, "short", shortenPath("short", 20))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := map[string]string{
		"héllo wörld ünïcode": "héllo w...",
		"你好世界你好世界":            "你好世...",
		"short":               "short",
	}
	for in, want := range cases {
		got := truncateString(in, 10)
		assert.True(t, utf8.ValidString(got), in)
		assert.LessOrEqual(t, ansi.StringWidth(got), 10, in)
		assert.Equal(t, want, got, in)
	}

	got := FormatToolCallArgs("web_search", `{"query":"ünïcode ünïcode ünïcode"}`, 12)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, ansi.StringWidth(got), 12)
}
