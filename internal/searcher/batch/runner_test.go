package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func newServer(t *testing.T) *searchserver.Server {
	t.Helper()
	s, err := searchserver.NewFromText("and with", searchserver.WithLogger(logger.Discard()))
	require.NoError(t, err)
	texts := []string{
		"funny pet and nasty rat",
		"funny pet with curly hair",
		"funny pet and not very nasty rat",
		"pet with rat and rat and rat",
		"nasty rat with curly hair",
	}
	for i, text := range texts {
		require.NoError(t, s.AddDocument(i+1, text, searchserver.StatusActual, []int{1, 2}))
	}
	return s
}

var queries = []string{"nasty rat -not", "not very funny nasty pet", "curly hair"}

func ids(docs []searchserver.Document) []int {
	out := make([]int, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestProcessQueries(t *testing.T) {
	s := newServer(t)
	r := New(s, WithWorkers(2), WithLogger(logger.Discard()))

	results, err := r.ProcessQueries(context.Background(), queries)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, q := range queries {
		want, err := s.FindTopDocuments(q)
		require.NoError(t, err)
		assert.Equal(t, want, results[i], q)
	}
	assert.Len(t, results[0], 3)
	assert.Len(t, results[1], 5)
	assert.Len(t, results[2], 2)
}

func TestProcessQueriesJoined(t *testing.T) {
	s := newServer(t)
	r := New(s)

	joined, err := r.ProcessQueriesJoined(context.Background(), queries)
	require.NoError(t, err)

	var want []int
	for _, q := range queries {
		docs, err := s.FindTopDocuments(q)
		require.NoError(t, err)
		want = append(want, ids(docs)...)
	}
	assert.Equal(t, want, ids(joined))
	assert.Len(t, joined, 10)
}

func TestProcessQueries_Empty(t *testing.T) {
	r := New(newServer(t))
	results, err := r.ProcessQueries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	joined, err := r.ProcessQueriesJoined(context.Background(), []string{})
	require.NoError(t, err)
	assert.Empty(t, joined)
}

func TestProcessQueries_FirstErrorFailsBatch(t *testing.T) {
	r := New(newServer(t), WithWorkers(1))
	_, err := r.ProcessQueries(context.Background(), []string{"rat", "cat --dog", "pet"})
	require.Error(t, err)
	assert.ErrorIs(t, err, searchserver.ErrInvalidWord)
	assert.Contains(t, err.Error(), "query 1")
}

func TestProcessQueries_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(newServer(t))
	_, err := r.ProcessQueries(ctx, []string{"rat"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessQueries_WithCache(t *testing.T) {
	s := newServer(t)
	backend, err := cache.NewLRUBackend(16)
	require.NoError(t, err)
	c := cache.New(backend, cache.WithLogger(logger.Discard()))
	r := New(s, WithCache(c), WithWorkers(1))

	first, err := r.ProcessQueries(context.Background(), queries)
	require.NoError(t, err)
	second, err := r.ProcessQueries(context.Background(), queries)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	hits, misses := c.Stats()
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(3), misses)

	// Removing a document moves to a new generation, so nothing stale is
	// served.
	require.True(t, s.RemoveDocument(5))
	third, err := r.ProcessQueries(context.Background(), queries[2:])
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(third[0]))
}

func TestProcessQueries_SharedCacheKeepsCorporaApart(t *testing.T) {
	backend, err := cache.NewLRUBackend(16)
	require.NoError(t, err)
	newCache := func() *cache.QueryCache {
		return cache.New(backend, cache.WithLogger(logger.Discard()))
	}
	newSingle := func(id int, text string) *searchserver.Server {
		s, err := searchserver.NewFromText("", searchserver.WithLogger(logger.Discard()))
		require.NoError(t, err)
		require.NoError(t, s.AddDocument(id, text, searchserver.StatusActual, []int{1}))
		return s
	}
	// Both servers sit at the same generation but hold different documents.
	cats := newSingle(1, "cat")
	dogs := newSingle(7, "dog")
	require.Equal(t, cats.Generation(), dogs.Generation())

	fromCats, err := New(cats, WithCache(newCache())).ProcessQueries(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(fromCats[0]))

	dogCache := newCache()
	fromDogs, err := New(dogs, WithCache(dogCache)).ProcessQueries(context.Background(), []string{"cat"})
	require.NoError(t, err)
	direct, err := dogs.FindTopDocuments("cat")
	require.NoError(t, err)
	assert.Equal(t, direct, fromDogs[0])
	assert.Empty(t, fromDogs[0])
	hits, _ := dogCache.Stats()
	assert.Zero(t, hits)

	// A second server with the same content does share entries.
	twin := newSingle(1, "cat")
	twinCache := newCache()
	fromTwin, err := New(twin, WithCache(twinCache)).ProcessQueries(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, fromCats, fromTwin)
	hits, _ = twinCache.Stats()
	assert.Equal(t, int64(1), hits)
}

func BenchmarkProcessQueries(b *testing.B) {
	s, err := searchserver.NewFromText("", searchserver.WithLogger(logger.Discard()))
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 2000; i++ {
		if err := s.AddDocument(i, fmt.Sprintf("w%d w%d w%d common", i%13, i%29, i%31), searchserver.StatusActual, nil); err != nil {
			b.Fatal(err)
		}
	}
	batch := make([]string, 100)
	for i := range batch {
		batch[i] = fmt.Sprintf("w%d w%d -w%d", i%13, i%29, i%7)
	}
	r := New(s)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.ProcessQueries(context.Background(), batch); err != nil {
			b.Fatal(err)
		}
	}
}
