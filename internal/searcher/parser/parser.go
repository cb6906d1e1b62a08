// Package parser turns a raw query string into the sorted plus and minus term
// sets used for scoring and matching.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

const minusPrefix = '-'

// StopWords is the part of the index the parser needs.
type StopWords interface {
	IsStopWord(word string) bool
}

// Query holds the deduplicated, sorted terms of a parsed query. Terms alias
// the raw query string and are only valid as long as it is.
type Query struct {
	Plus  []string
	Minus []string
}

// Empty reports whether the query has no plus terms.
func (q Query) Empty() bool {
	return len(q.Plus) == 0
}

// Parse splits raw on spaces and classifies each term. A leading '-' marks a
// minus term and is stripped once; a lone "-" or a term starting with "--" is
// rejected, as is any term containing a control character. Stop words are
// dropped from both sets.
func Parse(raw string, stop StopWords) (Query, error) {
	var q Query
	for _, term := range tokenizer.Split(raw) {
		if !tokenizer.IsValid(term) {
			return Query{}, apperrors.Newf(apperrors.ErrInvalidWord, "parse_query", "query word %q contains a control character", term)
		}
		minus := term[0] == minusPrefix
		word := term
		if minus {
			word = term[1:]
		}
		if word == "" || word[0] == minusPrefix {
			return Query{}, apperrors.Newf(apperrors.ErrInvalidWord, "parse_query", "malformed minus word %q", term)
		}
		if stop != nil && stop.IsStopWord(word) {
			continue
		}
		if minus {
			q.Minus = append(q.Minus, word)
		} else {
			q.Plus = append(q.Plus, word)
		}
	}
	q.Plus = sortedSet(q.Plus)
	q.Minus = sortedSet(q.Minus)
	return q, nil
}

func sortedSet(words []string) []string {
	slices.Sort(words)
	return slices.Compact(words)
}

// String renders the query back into its canonical form.
func (q Query) String() string {
	var b strings.Builder
	for i, w := range q.Plus {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	for _, w := range q.Minus {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(minusPrefix)
		b.WriteString(w)
	}
	return b.String()
}
