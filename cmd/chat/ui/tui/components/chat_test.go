package components

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "ok", firstLine("ok", 10))
	assert.Equal(t, "boom …", firstLine("boom\nstack trace", 10))

	got := firstLine("ошибка: файл не найден", 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ошибка:...", got)
}
