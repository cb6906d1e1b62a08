// Package analytics tracks how many of the most recent queries returned no
// documents.
package analytics

import (
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

// DefaultWindowSize is the number of most recent requests a Window keeps,
// one per minute of a day.
const DefaultWindowSize = 1440

// Searcher is the query surface a Window records.
type Searcher interface {
	FindTopDocuments(raw string, opts ...searchserver.QueryOption) ([]searchserver.Document, error)
}

type request struct {
	seq   uint64
	empty bool
}

// Window records the outcome of every successful query made through it and
// keeps only the latest Size of them. Requests are ordered by a call counter,
// not by wall-clock time. It is safe for concurrent use.
type Window struct {
	searcher Searcher
	size     int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	ring     []request
	head     int
	seq      uint64
	noResult int
}

type Option func(*Window)

// WithSize sets the number of retained requests. Values below one keep the
// default.
func WithSize(n int) Option {
	return func(w *Window) {
		if n > 0 {
			w.size = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Window) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics publishes the empty-result count as a gauge.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Window) {
		w.metrics = m
	}
}

func NewWindow(searcher Searcher, opts ...Option) *Window {
	w := &Window{
		searcher: searcher,
		size:     DefaultWindowSize,
		logger:   slog.Default().With("component", "request-window"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ring = make([]request, 0, w.size)
	return w
}

// AddFindRequest runs the query and records whether it found anything. A
// failed query is returned as is and not recorded.
func (w *Window) AddFindRequest(raw string, opts ...searchserver.QueryOption) ([]searchserver.Document, error) {
	docs, err := w.searcher.FindTopDocuments(raw, opts...)
	if err != nil {
		return nil, err
	}
	w.record(len(docs) == 0)
	return docs, nil
}

func (w *Window) record(empty bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	r := request{seq: w.seq, empty: empty}
	if len(w.ring) < w.size {
		w.ring = append(w.ring, r)
	} else {
		if w.ring[w.head].empty {
			w.noResult--
		}
		w.ring[w.head] = r
		w.head = (w.head + 1) % w.size
	}
	if empty {
		w.noResult++
	}
	w.metrics.RecordWindow(w.noResult)
	w.logger.Debug("request recorded", "seq", r.seq, "empty", empty, "no_result_requests", w.noResult)
}

// NoResultRequests is the number of retained requests that returned no
// documents.
func (w *Window) NoResultRequests() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.noResult
}

// Len is the number of retained requests.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ring)
}

// Total is the number of requests recorded since the Window was created.
func (w *Window) Total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

func (w *Window) Size() int {
	return w.size
}
