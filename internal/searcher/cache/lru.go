package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUBackend keeps entries in process, evicting the least recently used
// once size entries are stored.
type LRUBackend struct {
	entries *lru.Cache[string, []byte]
}

func NewLRUBackend(size int) (*LRUBackend, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRUBackend{entries: entries}, nil
}

func (b *LRUBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.entries.Get(key)
	return v, ok, nil
}

func (b *LRUBackend) Set(_ context.Context, key string, value []byte) error {
	b.entries.Add(key, value)
	return nil
}

func (b *LRUBackend) Purge(context.Context) error {
	b.entries.Purge()
	return nil
}

func (b *LRUBackend) Len() int {
	return b.entries.Len()
}
