package types

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/tidwall/gjson"
)

// FormatToolCallArgs formats tool call arguments for display. Arguments that
// are still streaming are not valid json yet and are shown raw.
func FormatToolCallArgs(name string, argsJSON string, maxLen int) string {
	if argsJSON == "" {
		return "(no arguments)"
	}
	if !gjson.Valid(argsJSON) {
		return truncateString(argsJSON, maxLen)
	}

	args := gjson.Parse(argsJSON)
	if !args.IsObject() {
		return truncateString(args.Raw, maxLen)
	}

	switch {
	case args.Get("command").Type == gjson.String:
		return "$ " + truncateString(args.Get("command").String(), maxLen-2)
	case args.Get("path").Type == gjson.String:
		return formatPathArgs(args, maxLen)
	case args.Get("query").Type == gjson.String && name != "":
		return fmt.Sprintf("🔍 %s", truncateString(args.Get("query").String(), maxLen-3))
	}
	return formatGenericArgs(args, maxLen)
}

func formatPathArgs(args gjson.Result, maxLen int) string {
	parts := []string{shortenPath(args.Get("path").String(), 50)}
	if content := args.Get("content"); content.Exists() {
		parts = append(parts, fmt.Sprintf("%d bytes", len(content.String())))
	}
	if offset := args.Get("offset").Int(); offset > 0 {
		parts = append(parts, fmt.Sprintf("from line %d", offset))
	}
	if limit := args.Get("limit").Int(); limit > 0 {
		parts = append(parts, fmt.Sprintf("%d lines", limit))
	}
	return truncateString(strings.Join(parts, ", "), maxLen)
}

func formatGenericArgs(args gjson.Result, maxLen int) string {
	fields := args.Map()
	if len(fields) == 0 {
		return "(no arguments)"
	}

	parts := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, truncateString(fields[k].String(), 30)))
	}
	return truncateString(strings.Join(parts, ", "), maxLen)
}

func shortenPath(path string, maxLen int) string {
	if ansi.StringWidth(path) <= maxLen {
		return path
	}

	// Try to show filename and parent dir
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		shortened := ".../" + parts[len(parts)-2] + "/" + parts[len(parts)-1]
		if ansi.StringWidth(shortened) <= maxLen {
			return shortened
		}
	}

	return truncateString(path, maxLen)
}

// truncateString cuts s to maxLen terminal cells, never inside a rune.
func truncateString(s string, maxLen int) string {
	if maxLen < 4 {
		return s
	}
	return ansi.Truncate(s, maxLen, "...")
}
