// Package parallel distributes independent work units across a bounded set of
// goroutines and returns once every unit has finished.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker count used when a caller passes a value < 1.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ForEach calls fn(i, items[i]) for every element using at most workers
// concurrent goroutines. It blocks until all calls return. fn must be safe
// for concurrent use.
func ForEach[T any](items []T, workers int, fn func(i int, item T)) {
	if len(items) == 0 {
		return
	}
	if workers < 1 {
		workers = DefaultWorkers()
	}
	if workers == 1 || len(items) == 1 {
		for i, item := range items {
			fn(i, item)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			fn(i, item)
			return nil
		})
	}
	_ = g.Wait()
}

// Map runs fn over items concurrently and returns the results in input order.
// The first error returned by fn is reported after all calls have finished.
func Map[T, R any](items []T, workers int, fn func(item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if workers < 1 {
		workers = DefaultWorkers()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			r, err := fn(item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
