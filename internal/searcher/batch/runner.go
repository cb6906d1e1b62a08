// Package batch runs many queries against one server at once.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/parallel"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

// Searcher is the server surface the runner needs. Fingerprint and
// Generation key the optional result cache.
type Searcher interface {
	FindTopDocuments(raw string, opts ...searchserver.QueryOption) ([]searchserver.Document, error)
	Fingerprint() uint64
	Generation() uint64
}

// Runner answers every query with the Parallel policy and the default
// StatusActual filter.
type Runner struct {
	searcher Searcher
	workers  int
	cache    *cache.QueryCache
	logger   *slog.Logger
}

type Option func(*Runner)

// WithWorkers bounds the number of queries in flight. Values below one mean
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithCache answers repeated queries from c while the index is unchanged.
func WithCache(c *cache.QueryCache) Option {
	return func(r *Runner) {
		r.cache = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(searcher Searcher, opts ...Option) *Runner {
	r := &Runner{
		searcher: searcher,
		logger:   slog.Default().With("component", "batch-runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = parallel.DefaultWorkers()
	}
	return r
}

// ProcessQueries returns one result list per query, in query order. The
// first failing query cancels the rest and its error is returned.
func (r *Runner) ProcessQueries(ctx context.Context, queries []string) ([][]searchserver.Document, error) {
	results := make([][]searchserver.Document, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, query := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := r.find(gctx, query)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i, query, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Debug("batch processed", "queries", len(queries), "workers", r.workers)
	return results, nil
}

// ProcessQueriesJoined concatenates the results of ProcessQueries in query
// order.
func (r *Runner) ProcessQueriesJoined(ctx context.Context, queries []string) ([]searchserver.Document, error) {
	perQuery, err := r.ProcessQueries(ctx, queries)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, docs := range perQuery {
		total += len(docs)
	}
	joined := make([]searchserver.Document, 0, total)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}

func (r *Runner) find(ctx context.Context, query string) ([]searchserver.Document, error) {
	run := func() ([]searchserver.Document, error) {
		return r.searcher.FindTopDocuments(query, searchserver.WithPolicy(searchserver.Parallel))
	}
	if r.cache == nil {
		return run()
	}
	state := cache.State{Fingerprint: r.searcher.Fingerprint(), Generation: r.searcher.Generation()}
	docs, _, err := r.cache.GetOrCompute(ctx, state, query, run)
	return docs, err
}
