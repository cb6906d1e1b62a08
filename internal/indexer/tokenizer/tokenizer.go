// Package tokenizer splits raw text into whitespace-delimited terms and checks
// term well-formedness. Terms are returned as substrings of the input, so
// tokenising never copies document or query text.
package tokenizer

import (
	"slices"
	"strings"
)

const separator = ' '

// Split breaks text on single spaces, collapsing runs of spaces. Only the
// space character separates terms; tabs and other control characters stay
// inside the term so that IsValid can reject them.
func Split(text string) []string {
	terms := make([]string, 0, strings.Count(text, " ")+1)
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == separator {
			if start >= 0 {
				terms = append(terms, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		terms = append(terms, text[start:])
	}
	return terms
}

// IsValid reports whether term is free of control characters (bytes 0-31).
func IsValid(term string) bool {
	for i := 0; i < len(term); i++ {
		if term[i] < ' ' {
			return false
		}
	}
	return true
}

// UniqueNonEmpty returns the sorted set of non-empty strings in words.
func UniqueNonEmpty(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			result = append(result, w)
		}
	}
	slices.Sort(result)
	return slices.Compact(result)
}
