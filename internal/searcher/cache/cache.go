// Package cache memoises ranked query results. Keys combine the index state
// with the normalised query, so any add or remove makes earlier entries
// unreachable without an explicit purge, and servers holding different
// corpora never read each other's entries from a shared backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

const keyPrefix = "search:"

// Backend stores encoded results. Get reports a miss with ok == false and a
// nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Purge(ctx context.Context) error
}

// State identifies the index a result was computed on: its content
// fingerprint and its mutation generation.
type State struct {
	Fingerprint uint64
	Generation  uint64
}

type QueryCache struct {
	backend Backend
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

type Option func(*QueryCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *QueryCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) {
		c.metrics = m
	}
}

func New(backend Backend, opts ...Option) *QueryCache {
	c := &QueryCache{
		backend: backend,
		logger:  slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up the results of query at state. Backend failures are
// logged and count as misses.
func (c *QueryCache) Get(ctx context.Context, state State, query string) ([]ranker.Document, bool) {
	key := buildKey(state, query)
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}
	if !ok || err != nil {
		c.recordMiss()
		return nil, false
	}
	var docs []ranker.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		c.logger.Warn("cache entry unreadable", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.RecordCache(true)
	c.logger.Debug("cache hit", "query", query, "generation", state.Generation)
	return docs, true
}

// Set stores docs for query at state. Failures are logged only.
func (c *QueryCache) Set(ctx context.Context, state State, query string, docs []ranker.Document) {
	key := buildKey(state, query)
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or runs compute once per key even when
// several callers miss at the same time. Every caller gets its own copy of
// the result. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	state State,
	query string,
	compute func() ([]ranker.Document, error),
) ([]ranker.Document, bool, error) {
	if docs, ok := c.Get(ctx, state, query); ok {
		return docs, true, nil
	}
	key := buildKey(state, query)
	val, err, _ := c.group.Do(key, func() (any, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, state, query, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return slices.Clone(val.([]ranker.Document)), false, nil
}

// Invalidate drops every cached entry.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if err := c.backend.Purge(ctx); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated")
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	c.metrics.RecordCache(false)
}

func buildKey(state State, query string) string {
	raw := fmt.Sprintf("%x|%d|%s", state.Fingerprint, state.Generation, normalizeQuery(query))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery sorts and deduplicates the raw words so that queries
// differing only in word order or repetition share an entry.
func normalizeQuery(query string) string {
	return strings.Join(tokenizer.UniqueNonEmpty(tokenizer.Split(query)), " ")
}
