// Package executor scores, ranks, and matches documents of an index against
// parsed queries, in either sequential or data-parallel mode. Both modes
// return identical results, down to the bits of every relevance value.
package executor

import (
	"cmp"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/parallel"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

// DefaultBuckets is the aggregator bucket count used by parallel scoring.
const DefaultBuckets = 64

const (
	opFindTop = "find_top_documents"
	opMatch   = "match_document"
)

// Predicate filters candidate documents during scoring. In parallel mode it
// is called from several goroutines at once.
type Predicate func(id int, status index.Status, rating int) bool

// ByStatus keeps only documents with the given status.
func ByStatus(status index.Status) Predicate {
	return func(_ int, s index.Status, _ int) bool {
		return s == status
	}
}

// MatchResult lists the plus terms of a query found in one document.
type MatchResult struct {
	Words  []string     `json:"words"`
	Status index.Status `json:"status"`
}

type Executor struct {
	ix      *index.Index
	buckets int
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Executor)

func WithBuckets(n int) Option {
	return func(e *Executor) {
		e.buckets = n
	}
}

func WithWorkers(n int) Option {
	return func(e *Executor) {
		e.workers = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records every query on m. A nil m disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func New(ix *index.Index, opts ...Option) *Executor {
	e := &Executor{
		ix:      ix,
		buckets: DefaultBuckets,
		workers: ix.Workers(),
		logger:  slog.Default().With("component", "query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.buckets < 1 {
		e.buckets = 1
	}
	if e.workers < 1 {
		e.workers = parallel.DefaultWorkers()
	}
	return e
}

// FindTopDocuments parses raw, scores every matching document accepted by
// predicate, and returns at most ranker.MaxResults documents in rank order.
// A nil predicate keeps documents with StatusActual.
func (e *Executor) FindTopDocuments(policy index.Policy, raw string, predicate Predicate) ([]ranker.Document, error) {
	start := time.Now()
	if predicate == nil {
		predicate = ByStatus(index.StatusActual)
	}
	query, err := parser.Parse(raw, e.ix)
	if err != nil {
		e.metrics.RecordQuery(opFindTop, policy.String(), time.Since(start), 0, err)
		return nil, err
	}
	docs := ranker.Top(e.FindAllDocuments(policy, query, predicate), ranker.MaxResults)

	elapsed := time.Since(start)
	e.metrics.RecordQuery(opFindTop, policy.String(), elapsed, len(docs), nil)
	e.logger.Debug("query executed",
		"query", raw,
		"policy", policy.String(),
		"plus_terms", len(query.Plus),
		"minus_terms", len(query.Minus),
		"results", len(docs),
		"duration", elapsed,
	)
	return docs, nil
}

// FindAllDocuments returns every document that contains a plus term, passes
// predicate, and contains no minus term, in ascending id order. Relevance is
// the sum of tf*idf over the plus terms, added in sorted term order.
func (e *Executor) FindAllDocuments(policy index.Policy, query parser.Query, predicate Predicate) []ranker.Document {
	if predicate == nil {
		predicate = ByStatus(index.StatusActual)
	}
	if policy == index.Parallel {
		return e.findAllParallel(query, predicate)
	}
	return e.findAllSequential(query, predicate)
}

func (e *Executor) findAllSequential(query parser.Query, predicate Predicate) []ranker.Document {
	relevance := make(map[int]float64)
	total := e.ix.Len()
	for _, word := range query.Plus {
		df := e.ix.DocFrequency(word)
		if df == 0 {
			continue
		}
		idf := ranker.IDF(total, df)
		e.ix.Postings(word, func(id int, tf float64) {
			data, _ := e.ix.Document(id)
			if predicate(id, data.Status, data.Rating) {
				relevance[id] += tf * idf
			}
		})
	}
	for _, word := range query.Minus {
		e.ix.Postings(word, func(id int, _ float64) {
			delete(relevance, id)
		})
	}
	return e.collect(relevance)
}

// findAllParallel stores each plus term's contribution in its own slot and
// sums the slots in term order after the fan-out, so floating-point addition
// happens in exactly the order findAllSequential uses.
func (e *Executor) findAllParallel(query parser.Query, predicate Predicate) []ranker.Document {
	contributions := shard.New[[]float64](e.buckets)
	total := e.ix.Len()
	terms := len(query.Plus)

	parallel.ForEach(query.Plus, e.workers, func(slot int, word string) {
		df := e.ix.DocFrequency(word)
		if df == 0 {
			return
		}
		idf := ranker.IDF(total, df)
		e.ix.Postings(word, func(id int, tf float64) {
			data, _ := e.ix.Document(id)
			if !predicate(id, data.Status, data.Rating) {
				return
			}
			contributions.Access(id, func(slots *[]float64) {
				if *slots == nil {
					*slots = make([]float64, terms)
				}
				(*slots)[slot] = tf * idf
			})
		})
	})
	// Minus exclusion starts only after every plus contribution is in.
	parallel.ForEach(query.Minus, e.workers, func(_ int, word string) {
		e.ix.Postings(word, func(id int, _ float64) {
			contributions.Erase(id)
		})
	})

	drained := contributions.Drain()
	relevance := make(map[int]float64, len(drained))
	for id, slots := range drained {
		sum := 0.0
		for _, v := range slots {
			sum += v
		}
		relevance[id] = sum
	}
	return e.collect(relevance)
}

func (e *Executor) collect(relevance map[int]float64) []ranker.Document {
	docs := make([]ranker.Document, 0, len(relevance))
	for id, rel := range relevance {
		data, _ := e.ix.Document(id)
		docs = append(docs, ranker.Document{ID: id, Relevance: rel, Rating: data.Rating})
	}
	slices.SortFunc(docs, func(a, b ranker.Document) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return docs
}

// MatchDocument reports which plus terms of raw occur in document id, in
// sorted order, along with the document's status. The word list is empty when
// any minus term occurs in the document. An unknown id yields no words and
// StatusRemoved.
func (e *Executor) MatchDocument(policy index.Policy, raw string, id int) (MatchResult, error) {
	start := time.Now()
	query, err := parser.Parse(raw, e.ix)
	if err != nil {
		e.metrics.RecordQuery(opMatch, policy.String(), time.Since(start), 0, err)
		return MatchResult{}, err
	}
	data, ok := e.ix.Document(id)
	if !ok {
		e.metrics.RecordQuery(opMatch, policy.String(), time.Since(start), 0, nil)
		e.logger.Debug("match on unknown document", "doc_id", id)
		return MatchResult{Words: []string{}, Status: index.StatusRemoved}, nil
	}

	var words []string
	if policy == index.Parallel {
		words = e.matchParallel(query, id)
	} else {
		words = e.matchSequential(query, id)
	}

	elapsed := time.Since(start)
	e.metrics.RecordQuery(opMatch, policy.String(), elapsed, len(words), nil)
	e.logger.Debug("document matched",
		"doc_id", id,
		"policy", policy.String(),
		"words", len(words),
		"duration", elapsed,
	)
	return MatchResult{Words: words, Status: data.Status}, nil
}

func (e *Executor) matchSequential(query parser.Query, id int) []string {
	for _, word := range query.Minus {
		if e.ix.Contains(word, id) {
			return []string{}
		}
	}
	words := make([]string, 0, len(query.Plus))
	for _, word := range query.Plus {
		if e.ix.Contains(word, id) {
			words = append(words, word)
		}
	}
	return words
}

// matchParallel checks plus and minus terms in one fan-out. A minus hit
// raises excluded; plus workers skip their write once it is raised, and the
// flag is read again after the fan-out so a late minus hit still wins.
func (e *Executor) matchParallel(query parser.Query, id int) []string {
	var excluded atomic.Bool
	found := make([]bool, len(query.Plus))
	terms := make([]string, 0, len(query.Plus)+len(query.Minus))
	terms = append(terms, query.Plus...)
	terms = append(terms, query.Minus...)

	parallel.ForEach(terms, e.workers, func(i int, word string) {
		if i >= len(query.Plus) {
			if e.ix.Contains(word, id) {
				excluded.Store(true)
			}
			return
		}
		if excluded.Load() {
			return
		}
		found[i] = e.ix.Contains(word, id)
	})

	if excluded.Load() {
		return []string{}
	}
	words := make([]string, 0, len(query.Plus))
	for i, word := range query.Plus {
		if found[i] {
			words = append(words, word)
		}
	}
	return words
}
