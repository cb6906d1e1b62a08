// Package searchserver is an embedded TF-IDF search engine. A Server indexes
// text documents with a rating and a status and answers ranked keyword
// queries. Every query and removal can run sequentially or in parallel; both
// policies produce identical results.
//
// A query is a space-separated list of words. Words prefixed with '-' are
// minus words: documents containing any of them are excluded. Stop words are
// ignored in documents and queries alike.
//
// Server does no locking of its own. Read calls (FindTopDocuments,
// MatchDocument, WordFrequencies, ...) may run concurrently with each other,
// but AddDocument and RemoveDocument must not overlap with any other call.
package searchserver

import (
	"iter"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

type (
	Document     = ranker.Document
	Status       = index.Status
	Policy       = index.Policy
	DocumentData = index.DocumentData
	MatchResult  = executor.MatchResult
	// Predicate filters documents by id, status and rating. It must be safe
	// for concurrent use when queries run with the Parallel policy.
	Predicate = executor.Predicate
)

const (
	StatusActual     = index.StatusActual
	StatusIrrelevant = index.StatusIrrelevant
	StatusBanned     = index.StatusBanned
	StatusRemoved    = index.StatusRemoved

	Sequential = index.Sequential
	Parallel   = index.Parallel

	MaxResults       = ranker.MaxResults
	RelevanceEpsilon = ranker.RelevanceEpsilon
)

// Errors returned by the server; test with errors.Is.
var (
	ErrInvalidDocumentID = apperrors.ErrInvalidDocumentID
	ErrInvalidWord       = apperrors.ErrInvalidWord
)

// ParseStatus and ParsePolicy accept the lower-case names printed by String.
var (
	ParseStatus = index.ParseStatus
	ParsePolicy = index.ParsePolicy
)

type Server struct {
	ix      *index.Index
	exec    *executor.Executor
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type options struct {
	buckets int
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*options)

// WithBuckets sets the lock-bucket count of the parallel relevance
// aggregator.
func WithBuckets(n int) Option {
	return func(o *options) {
		o.buckets = n
	}
}

// WithWorkers bounds the goroutines used by parallel operations. Values below
// one mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records indexing and query metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates an empty server. Empty and repeated stop words are ignored; a
// stop word containing a control character fails with ErrInvalidWord.
func New(stopWords []string, opts ...Option) (*Server, error) {
	o := options{
		buckets: executor.DefaultBuckets,
		logger:  slog.Default().With("component", "searchserver"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "searchserver")
	}
	ix, err := index.New(stopWords,
		index.WithWorkers(o.workers),
		index.WithLogger(o.logger.With("subsystem", "index")),
	)
	if err != nil {
		return nil, err
	}
	exec := executor.New(ix,
		executor.WithBuckets(o.buckets),
		executor.WithWorkers(ix.Workers()),
		executor.WithLogger(o.logger.With("subsystem", "executor")),
		executor.WithMetrics(o.metrics),
	)
	return &Server{
		ix:      ix,
		exec:    exec,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// NewFromText creates a server whose stop words are the space-separated
// words of stopWords.
func NewFromText(stopWords string, opts ...Option) (*Server, error) {
	return New(tokenizer.Split(stopWords), opts...)
}

// AddDocument indexes text under id with the average of ratings. It fails
// with ErrInvalidDocumentID for a negative or existing id and with
// ErrInvalidWord for a word containing a control character; a failed call
// leaves the server unchanged.
func (s *Server) AddDocument(id int, text string, status Status, ratings []int) error {
	err := s.ix.AddDocument(id, text, status, ratings)
	s.metrics.RecordAdd(err, s.ix.Len())
	return err
}

// RemoveDocument removes id sequentially. Unknown ids are ignored.
func (s *Server) RemoveDocument(id int) bool {
	return s.RemoveDocumentWith(Sequential, id)
}

// RemoveDocumentWith removes id using policy. It reports whether a document
// was removed.
func (s *Server) RemoveDocumentWith(policy Policy, id int) bool {
	removed := s.ix.RemoveDocument(policy, id)
	if removed {
		s.metrics.RecordRemove(policy.String(), s.ix.Len())
	}
	return removed
}

type queryOptions struct {
	policy    Policy
	predicate Predicate
}

// QueryOption adjusts a single FindTopDocuments call.
type QueryOption func(*queryOptions)

func WithPolicy(policy Policy) QueryOption {
	return func(q *queryOptions) {
		q.policy = policy
	}
}

// WithStatus keeps only documents with status. The default is StatusActual.
func WithStatus(status Status) QueryOption {
	return func(q *queryOptions) {
		q.predicate = executor.ByStatus(status)
	}
}

// WithPredicate keeps only documents accepted by predicate. It replaces any
// status filter.
func WithPredicate(predicate Predicate) QueryOption {
	return func(q *queryOptions) {
		q.predicate = predicate
	}
}

// FindTopDocuments returns at most MaxResults documents matching raw, most
// relevant first. Documents whose relevance differs by less than
// RelevanceEpsilon are ordered by rating.
func (s *Server) FindTopDocuments(raw string, opts ...QueryOption) ([]Document, error) {
	q := queryOptions{policy: Sequential}
	for _, opt := range opts {
		opt(&q)
	}
	return s.exec.FindTopDocuments(q.policy, raw, q.predicate)
}

// MatchDocument runs MatchDocumentWith sequentially.
func (s *Server) MatchDocument(raw string, id int) (MatchResult, error) {
	return s.MatchDocumentWith(Sequential, raw, id)
}

// MatchDocumentWith returns the plus words of raw found in document id, in
// sorted order, and the document's status. The word list is empty if the
// document contains any minus word. An unknown id yields StatusRemoved.
func (s *Server) MatchDocumentWith(policy Policy, raw string, id int) (MatchResult, error) {
	return s.exec.MatchDocument(policy, raw, id)
}

// WordFrequencies returns a copy of the term frequencies of document id, or
// an empty map if it does not exist.
func (s *Server) WordFrequencies(id int) map[string]float64 {
	return s.ix.WordFrequencies(id)
}

// Document returns the rating and status stored for id.
func (s *Server) Document(id int) (DocumentData, bool) {
	return s.ix.Document(id)
}

// IDs yields document ids in ascending order. Removing documents while
// ranging over IDs is not allowed; use DocumentIDs for that.
func (s *Server) IDs() iter.Seq[int] {
	return s.ix.IDs()
}

// DocumentIDs returns a snapshot of the document ids in ascending order.
func (s *Server) DocumentIDs() []int {
	return s.ix.DocumentIDs()
}

func (s *Server) DocumentCount() int {
	return s.ix.Len()
}

func (s *Server) StopWords() []string {
	return s.ix.StopWords()
}

// Generation changes after every successful add or remove. Result caches use
// it to tell whether a stored answer is still current.
func (s *Server) Generation() uint64 {
	return s.ix.Generation()
}

// Fingerprint identifies the indexed content (stop words and documents).
// Two servers report the same value only when they would answer every query
// identically. Result caches shared between processes key on it together
// with Generation.
func (s *Server) Fingerprint() uint64 {
	return s.ix.Fingerprint()
}

// Logger is the logger the server and its collaborators report through.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Metrics returns the collectors passed with WithMetrics, or nil.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}
