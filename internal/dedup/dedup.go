// Package dedup removes documents whose set of distinct words repeats an
// earlier document's.
package dedup

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Store is the part of a search server the remover walks and edits.
type Store interface {
	DocumentIDs() []int
	WordFrequencies(id int) map[string]float64
	RemoveDocument(id int) bool
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// RemoveDuplicates walks documents in ascending id order and removes every
// document whose distinct words, ignoring frequencies, equal those of a
// document seen before it. The first occurrence is kept. It returns the
// removed ids in ascending order.
func RemoveDuplicates(store Store, opts ...Option) []int {
	o := options{logger: slog.Default().With("component", "dedup")}
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[string]int)
	var duplicates []int
	for _, id := range store.DocumentIDs() {
		key := wordSetKey(store.WordFrequencies(id))
		if first, ok := seen[key]; ok {
			o.logger.Info("found duplicate document", "doc_id", id, "duplicate_of", first)
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = id
	}
	for _, id := range duplicates {
		store.RemoveDocument(id)
	}
	return duplicates
}

// wordSetKey joins the sorted words with a space, which never occurs inside
// an indexed word.
func wordSetKey(freqs map[string]float64) string {
	return strings.Join(slices.Sorted(maps.Keys(freqs)), " ")
}
