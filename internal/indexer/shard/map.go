// Package shard provides a bucketed concurrent map keyed by document id. Each
// bucket owns its own mutex, so goroutines touching different buckets never
// contend, and there is no global lock anywhere in the type.
package shard

import "sync"

type bucket[V any] struct {
	mu    sync.Mutex
	items map[int]V
}

// Map routes key k to bucket uint64(k) % len(buckets). The bucket count is
// fixed at construction.
type Map[V any] struct {
	buckets []bucket[V]
}

// New creates a Map with the given number of buckets. Counts below one are
// treated as one.
func New[V any](bucketCount int) *Map[V] {
	if bucketCount < 1 {
		bucketCount = 1
	}
	m := &Map[V]{buckets: make([]bucket[V], bucketCount)}
	for i := range m.buckets {
		m.buckets[i].items = make(map[int]V)
	}
	return m
}

// Buckets returns the fixed bucket count.
func (m *Map[V]) Buckets() int {
	return len(m.buckets)
}

func (m *Map[V]) bucketFor(key int) *bucket[V] {
	return &m.buckets[uint64(key)%uint64(len(m.buckets))]
}

// Access runs fn with exclusive access to the value stored under key,
// creating the zero value on first access. The pointer must not escape fn:
// it is only guarded while the bucket lock is held.
func (m *Map[V]) Access(key int, fn func(value *V)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.items[key]
	fn(&v)
	b.items[key] = v
}

// Erase removes key from its bucket, locking only that bucket.
func (m *Map[V]) Erase(key int) {
	b := m.bucketFor(key)
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
}

// Drain moves every entry into an ordinary map and empties the buckets. Buckets
// are locked one at a time; writers may keep working on buckets that have not
// been reached yet.
func (m *Map[V]) Drain() map[int]V {
	result := make(map[int]V)
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		for k, v := range b.items {
			result[k] = v
		}
		b.items = make(map[int]V)
		b.mu.Unlock()
	}
	return result
}

// Len counts entries across all buckets, one bucket lock at a time.
func (m *Map[V]) Len() int {
	n := 0
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		n += len(b.items)
		b.mu.Unlock()
	}
	return n
}
