// Package index owns the documents of a search server: their metadata, the
// stop-word set, and the two mirrored frequency tables (document -> word and
// word -> document).
//
// An Index is not internally synchronised. Any number of read calls may run
// concurrently, but AddDocument and RemoveDocument must not overlap with any
// other call on the same Index; callers enforce this single-writer contract.
package index

import (
	"encoding/binary"
	"iter"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/parallel"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// DocumentData is the per-document metadata kept alongside the word tables.
type DocumentData struct {
	Rating int
	Status Status
}

type Index struct {
	stopWords      map[string]struct{}
	wordToDocFreqs map[string]map[int]float64
	docToWordFreqs map[int]map[string]float64
	documents      map[int]DocumentData
	ids            []int
	generation     atomic.Uint64
	fingerprint    atomic.Uint64
	workers        int
	logger         *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithWorkers bounds the goroutines used by parallel removal. Values below one
// mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(ix *Index) {
		ix.workers = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// New creates an empty index. Empty stop words are ignored and duplicates
// collapse; a stop word containing a control character is rejected.
func New(stopWords []string, opts ...Option) (*Index, error) {
	ix := &Index{
		stopWords:      make(map[string]struct{}),
		wordToDocFreqs: make(map[string]map[int]float64),
		docToWordFreqs: make(map[int]map[string]float64),
		documents:      make(map[int]DocumentData),
		logger:         slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.workers < 1 {
		ix.workers = parallel.DefaultWorkers()
	}
	for _, w := range tokenizer.UniqueNonEmpty(stopWords) {
		if !tokenizer.IsValid(w) {
			return nil, apperrors.Newf(apperrors.ErrInvalidWord, "new_index", "stop word %q contains a control character", w)
		}
		ix.stopWords[strings.Clone(w)] = struct{}{}
	}
	ix.fingerprint.Store(xxhash.Sum64String(strings.Join(ix.StopWords(), " ")))
	return ix, nil
}

// NewFromText creates an index whose stop words are the space-separated terms
// of stopWordsText.
func NewFromText(stopWordsText string, opts ...Option) (*Index, error) {
	return New(tokenizer.Split(stopWordsText), opts...)
}

// AddDocument indexes text under id. It fails with ErrInvalidDocumentID when
// id is negative or already present, and with ErrInvalidWord when any term
// contains a control character. On failure the index is left untouched.
func (ix *Index) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.Newf(apperrors.ErrInvalidDocumentID, "add_document", "document id %d is negative", id)
	}
	if _, exists := ix.documents[id]; exists {
		return apperrors.Newf(apperrors.ErrInvalidDocumentID, "add_document", "document id %d already exists", id)
	}
	words, err := ix.splitNoStop(text)
	if err != nil {
		return err
	}

	// Every term is validated before the first write, so a rejected document
	// never leaves partial postings behind.
	freqs := make(map[string]float64, len(words))
	inv := 1.0 / float64(len(words))
	for _, w := range words {
		freqs[w] += inv
	}
	wordFreqs := make(map[string]float64, len(freqs))
	for w, tf := range freqs {
		word := strings.Clone(w)
		wordFreqs[word] = tf
		postings, ok := ix.wordToDocFreqs[word]
		if !ok {
			postings = make(map[int]float64)
			ix.wordToDocFreqs[word] = postings
		}
		postings[id] = tf
	}
	ix.docToWordFreqs[id] = wordFreqs
	data := DocumentData{
		Rating: averageRating(ratings),
		Status: status,
	}
	ix.documents[id] = data
	ix.fingerprint.Add(documentHash(id, data, wordFreqs))
	pos, _ := slices.BinarySearch(ix.ids, id)
	ix.ids = slices.Insert(ix.ids, pos, id)
	ix.generation.Add(1)

	ix.logger.Debug("document indexed",
		"doc_id", id,
		"status", status.String(),
		"words", len(words),
		"unique_words", len(wordFreqs),
	)
	return nil
}

// RemoveDocument deletes id from every table. Unknown ids are ignored. With the
// Parallel policy the per-word posting removals are spread across workers;
// each touches a different posting list, so the outcome does not depend on
// the policy. Posting lists left empty are pruned. It reports whether a
// document was removed.
func (ix *Index) RemoveDocument(policy Policy, id int) bool {
	data, ok := ix.documents[id]
	if !ok {
		return false
	}
	if pos, found := slices.BinarySearch(ix.ids, id); found {
		ix.ids = slices.Delete(ix.ids, pos, pos+1)
	}
	delete(ix.documents, id)

	wordFreqs := ix.docToWordFreqs[id]
	ix.fingerprint.Add(^(documentHash(id, data, wordFreqs) - 1))
	words := make([]string, 0, len(wordFreqs))
	for w := range wordFreqs {
		words = append(words, w)
	}
	emptied := make([]bool, len(words))
	strip := func(i int, word string) {
		postings := ix.wordToDocFreqs[word]
		delete(postings, id)
		emptied[i] = len(postings) == 0
	}
	if policy == Parallel {
		parallel.ForEach(words, ix.workers, strip)
	} else {
		for i, w := range words {
			strip(i, w)
		}
	}
	for i, w := range words {
		if emptied[i] {
			delete(ix.wordToDocFreqs, w)
		}
	}
	delete(ix.docToWordFreqs, id)
	ix.generation.Add(1)

	ix.logger.Debug("document removed",
		"doc_id", id,
		"policy", policy.String(),
		"words", len(words),
	)
	return true
}

// WordFrequencies returns a copy of the word -> term frequency mapping for id,
// or an empty map when id is unknown.
func (ix *Index) WordFrequencies(id int) map[string]float64 {
	freqs := ix.docToWordFreqs[id]
	result := make(map[string]float64, len(freqs))
	for w, tf := range freqs {
		result[w] = tf
	}
	return result
}

// Document returns the metadata stored for id.
func (ix *Index) Document(id int) (DocumentData, bool) {
	data, ok := ix.documents[id]
	return data, ok
}

// Len is the number of live documents.
func (ix *Index) Len() int {
	return len(ix.documents)
}

// IDs yields live document ids in ascending order.
func (ix *Index) IDs() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, id := range ix.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// DocumentIDs returns a snapshot of live ids in ascending order. Use it
// instead of IDs when the caller intends to remove documents while walking.
func (ix *Index) DocumentIDs() []int {
	return slices.Clone(ix.ids)
}

func (ix *Index) IsStopWord(word string) bool {
	_, ok := ix.stopWords[word]
	return ok
}

// StopWords returns the stop-word set in sorted order.
func (ix *Index) StopWords() []string {
	words := make([]string, 0, len(ix.stopWords))
	for w := range ix.stopWords {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// DocFrequency is the number of documents containing word.
func (ix *Index) DocFrequency(word string) int {
	return len(ix.wordToDocFreqs[word])
}

// Postings calls fn for every (document, term frequency) pair of word, in no
// particular order.
func (ix *Index) Postings(word string, fn func(id int, tf float64)) {
	for id, tf := range ix.wordToDocFreqs[word] {
		fn(id, tf)
	}
}

// Contains reports whether document id contains word.
func (ix *Index) Contains(word string, id int) bool {
	_, ok := ix.wordToDocFreqs[word][id]
	return ok
}

// Generation increases on every successful add or remove.
func (ix *Index) Generation() uint64 {
	return ix.generation.Load()
}

// Fingerprint identifies the indexed content: the stop words and every
// document's id, status, rating and term frequencies. Indexes holding the same
// content have the same fingerprint regardless of insertion order, and
// removing a document restores the value it had before that document was
// added.
func (ix *Index) Fingerprint() uint64 {
	return ix.fingerprint.Load()
}

// Workers is the parallel fan-out width used by this index.
func (ix *Index) Workers() int {
	return ix.workers
}

func (ix *Index) splitNoStop(text string) ([]string, error) {
	terms := tokenizer.Split(text)
	words := terms[:0]
	for _, term := range terms {
		if ix.IsStopWord(term) {
			continue
		}
		if !tokenizer.IsValid(term) {
			return nil, apperrors.Newf(apperrors.ErrInvalidWord, "add_document", "word %q contains a control character", term)
		}
		words = append(words, term)
	}
	return words, nil
}

// documentHash sums one hash per word so that map iteration order does not
// matter; the fingerprint is the sum over documents for the same reason.
func documentHash(id int, data DocumentData, freqs map[string]float64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(id))
	binary.LittleEndian.PutUint64(buf[8:], uint64(data.Status))
	binary.LittleEndian.PutUint64(buf[16:], uint64(data.Rating))
	sum := xxhash.Sum64(buf[:])

	var tf [8]byte
	d := xxhash.New()
	for w, freq := range freqs {
		d.Reset()
		_, _ = d.Write(buf[:8])
		_, _ = d.WriteString(w)
		binary.LittleEndian.PutUint64(tf[:], math.Float64bits(freq))
		_, _ = d.Write(tf[:])
		sum += d.Sum64()
	}
	return sum
}

func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
