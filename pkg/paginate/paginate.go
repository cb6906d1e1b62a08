// Package paginate splits a slice into fixed-size pages.
package paginate

import (
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Paginator yields contiguous sub-slices of its items. Pages share memory
// with the original slice.
type Paginator[T any] struct {
	items    []T
	pageSize int
}

// New fails with ErrInvalidPageSize when pageSize is below one.
func New[T any](items []T, pageSize int) (*Paginator[T], error) {
	if pageSize < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidPageSize, "paginate", "page size must be positive, got %d", pageSize)
	}
	return &Paginator[T]{items: items, pageSize: pageSize}, nil
}

// Pages yields every page in order. Every page holds pageSize items except
// possibly the last; an empty slice yields no pages. The sequence can be
// ranged over any number of times.
func (p *Paginator[T]) Pages() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for start := 0; start < len(p.items); start += p.pageSize {
			end := min(start+p.pageSize, len(p.items))
			if !yield(p.items[start:end:end]) {
				return
			}
		}
	}
}

// Page returns page i, counting from zero.
func (p *Paginator[T]) Page(i int) ([]T, bool) {
	start := i * p.pageSize
	if i < 0 || start >= len(p.items) {
		return nil, false
	}
	end := min(start+p.pageSize, len(p.items))
	return p.items[start:end:end], true
}

// Len is the number of pages.
func (p *Paginator[T]) Len() int {
	return (len(p.items) + p.pageSize - 1) / p.pageSize
}

// PageSize is the configured page size.
func (p *Paginator[T]) PageSize() int {
	return p.pageSize
}
