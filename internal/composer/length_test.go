package composer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitWords("short", 10))
	assert.Equal(t, []string{"anything"}, SplitWords("anything", 0))

	text := "one two three four five six"
	parts := SplitWords(text, 9)
	assert.Equal(t, []string{"one two", "three", "four five", "six"}, parts)

	for _, p := range SplitWords(strings.Repeat("كلمة ", 80), 50) {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 50)
		assert.False(t, strings.HasPrefix(p, " "))
	}
}

func TestSplitWords_LongWordIsCut(t *testing.T) {
	parts := SplitWords("aaaaaaaaaaaa bb", 5)
	assert.Equal(t, []string{"aaaaa", "aaaaa", "aa bb"}, parts)
}
