package tokenizer

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{"empty", "", []string{}},
		{"only spaces", "   ", []string{}},
		{"single", "cat", []string{"cat"}},
		{"ordered", "white cat and collar", []string{"white", "cat", "and", "collar"}},
		{"collapses runs", "  fluffy   cat  ", []string{"fluffy", "cat"}},
		{"keeps minus marker", "cat -dog", []string{"cat", "-dog"}},
		{"tab is not a separator", "a\tb c", []string{"a\tb", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Split(tt.input))
		})
	}
}

func TestSplit_ReturnsSubstrings(t *testing.T) {
	text := "borrowed terms here"
	terms := Split(text)
	assert.Len(t, terms, 3)
	assert.Equal(t, "terms", terms[1])
	assert.Same(t, unsafe.StringData(text[9:]), unsafe.StringData(terms[1]))
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"cat", true},
		{"-cat", true},
		{"пушистый", true},
		{"ca\x12t", false},
		{"\x00", false},
		{"tab\t", false},
		{"\x1f", false},
		{" ", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValid(tt.term), "term %q", tt.term)
	}
}

func TestUniqueNonEmpty(t *testing.T) {
	got := UniqueNonEmpty([]string{"in", "", "the", "in", "and"})
	assert.Equal(t, []string{"and", "in", "the"}, got)
}
