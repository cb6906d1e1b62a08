// Package loadtest drives concurrent queries against an in-memory server for
// a fixed duration and summarises the latencies.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

type Searcher interface {
	FindTopDocuments(raw string, opts ...searchserver.QueryOption) ([]searchserver.Document, error)
}

type Config struct {
	Concurrency int
	Duration    time.Duration
	Queries     []string
	Policy      searchserver.Policy
}

type Stats struct {
	totalRequests atomic.Int64
	emptyCount    atomic.Int64
	errorCount    atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
}

func NewStats() *Stats {
	return &Stats{latencies: make([]time.Duration, 0, 1024)}
}

// RecordRequest counts one query. Failed queries do not contribute a latency.
func (s *Stats) RecordRequest(duration time.Duration, results int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if results == 0 {
		s.emptyCount.Add(1)
	}
	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()
}

// Run issues queries from cfg.Concurrency workers until cfg.Duration passes
// or ctx is cancelled. Worker i starts at query i and walks the list
// round-robin.
func Run(ctx context.Context, searcher Searcher, cfg Config) *Stats {
	stats := NewStats()
	if len(cfg.Queries) == 0 {
		return stats
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := range max(cfg.Concurrency, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queryIdx := w
			for ctx.Err() == nil {
				query := cfg.Queries[queryIdx%len(cfg.Queries)]
				queryIdx++

				start := time.Now()
				docs, err := searcher.FindTopDocuments(query, searchserver.WithPolicy(cfg.Policy))
				stats.RecordRequest(time.Since(start), len(docs), err)
			}
		}()
	}
	wg.Wait()
	return stats
}

// Report is a point-in-time summary of Stats.
type Report struct {
	Total   int64
	Empty   int64
	Errors  int64
	Min     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P90     time.Duration
	P95     time.Duration
	P99     time.Duration
	Max     time.Duration
	StdDev  time.Duration
	Elapsed time.Duration
}

func (s *Stats) Report(elapsed time.Duration) Report {
	r := Report{
		Total:   s.totalRequests.Load(),
		Empty:   s.emptyCount.Load(),
		Errors:  s.errorCount.Load(),
		Elapsed: elapsed,
	}
	s.latenciesMu.Lock()
	latencies := slices.Clone(s.latencies)
	s.latenciesMu.Unlock()
	if len(latencies) == 0 {
		return r
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	r.Avg = sum / time.Duration(len(latencies))
	r.Min = latencies[0]
	r.Max = latencies[len(latencies)-1]
	r.P50 = percentile(latencies, 50)
	r.P90 = percentile(latencies, 90)
	r.P95 = percentile(latencies, 95)
	r.P99 = percentile(latencies, 99)

	var sumSquared float64
	avg := float64(r.Avg)
	for _, l := range latencies {
		diff := float64(l) - avg
		sumSquared += diff * diff
	}
	r.StdDev = time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
	return r
}

// Print writes r in a human-readable layout.
func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Queries:   %d\n", r.Total)
	fmt.Fprintf(w, "Empty Results:   %d\n", r.Empty)
	fmt.Fprintf(w, "Errors:          %d\n", r.Errors)
	if r.Total > 0 && r.Elapsed > 0 {
		fmt.Fprintf(w, "Queries/sec:     %.2f\n", float64(r.Total)/r.Elapsed.Seconds())
	}
	if r.Total == r.Errors {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Latency ===")
	fmt.Fprintf(w, "Min:    %s\n", r.Min)
	fmt.Fprintf(w, "Avg:    %s\n", r.Avg)
	fmt.Fprintf(w, "P50:    %s\n", r.P50)
	fmt.Fprintf(w, "P90:    %s\n", r.P90)
	fmt.Fprintf(w, "P95:    %s\n", r.P95)
	fmt.Fprintf(w, "P99:    %s\n", r.P99)
	fmt.Fprintf(w, "Max:    %s\n", r.Max)
	fmt.Fprintf(w, "StdDev: %s\n", r.StdDev)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
