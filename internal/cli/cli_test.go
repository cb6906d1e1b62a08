package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

const testCorpus = `{"id": 1, "text": "white cat and fashionable collar", "ratings": [8, -3]}
{"id": 2, "text": "fluffy cat fluffy tail", "ratings": [7, 2, 7]}
{"id": 3, "text": "groomed dog expressive eyes", "ratings": [5, -12, 2, 1]}
{"id": 4, "text": "groomed starling eugene", "ratings": [9]}
{"id": 5, "text": "collar fashionable cat white white", "status": "banned"}
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runApp(t, &app{}, args...)
}

func runApp(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestQuery(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "query", "--file", path, "--page-size", "2", "fluffy groomed cat", "parrot")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, `Results for query "fluffy groomed cat":`, lines[0])
	assert.Contains(t, lines[1], "document_id = 2,")
	assert.Contains(t, lines[1], "rating = 5 }")
	assert.Contains(t, lines[2], "document_id = 4,")
	assert.Equal(t, "Page break", lines[3])
	assert.Contains(t, lines[4], "document_id = 3,")
	assert.Contains(t, lines[5], "document_id = 1,")
	assert.Equal(t, "Page break", lines[6])
	assert.Equal(t, `Results for query "parrot":`, lines[7])
	assert.Equal(t, "Total empty results: 1", lines[8])
}

func TestQuery_PoliciesAgree(t *testing.T) {
	path := writeCorpus(t)
	seq, _, err := run(t, "query", "--file", path, "--policy", "sequential", "white groomed cat -dog")
	require.NoError(t, err)
	par, _, err := run(t, "query", "--file", path, "--policy", "parallel", "white groomed cat -dog")
	require.NoError(t, err)
	assert.Equal(t, seq, par)
	assert.NotContains(t, seq, "document_id = 3,")
}

func TestQuery_Status(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "query", "--file", path, "--status", "banned", "--json", "cat")
	require.NoError(t, err)

	var pages [][]searchserver.Document
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	require.Len(t, pages, 1)
	require.Len(t, pages[0], 1)
	assert.Equal(t, 5, pages[0][0].ID)
}

func TestQuery_Joined(t *testing.T) {
	t.Setenv("SS_CACHE_BACKEND", "lru")
	path := writeCorpus(t)
	out, _, err := run(t, "query", "--file", path, "--joined", "--page-size", "10", "fluffy", "groomed", "fluffy")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "document_id = 2,")
	assert.Contains(t, lines[1], "document_id = 4,")
	assert.Contains(t, lines[2], "document_id = 3,")
	assert.Contains(t, lines[3], "document_id = 2,")
	assert.Equal(t, "Page break", lines[4])
}

func TestQuery_FlushCache(t *testing.T) {
	path := writeCorpus(t)
	backend, err := cache.NewLRUBackend(16)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), "search:stale", []byte("[]")))

	_, _, err = runApp(t, &app{backend: backend}, "query", "--file", path, "--flush-cache", "cat")
	require.NoError(t, err)
	assert.Zero(t, backend.Len())

	// Flushing happens before the batch fills the cache again.
	require.NoError(t, backend.Set(context.Background(), "search:stale", []byte("[]")))
	_, _, err = runApp(t, &app{backend: backend}, "query", "--file", path, "--joined", "--flush-cache", "cat", "dog")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Len())
	_, ok, err := backend.Get(context.Background(), "search:stale")
	require.NoError(t, err)
	assert.False(t, ok)

	// Without a configured cache the flag is a no-op.
	_, _, err = run(t, "query", "--file", path, "--flush-cache", "cat")
	assert.NoError(t, err)
}

func TestQuery_Errors(t *testing.T) {
	path := writeCorpus(t)

	_, errOut, err := run(t, "query", "--file", path, "cat --dog")
	assert.ErrorContains(t, err, "1 of 1 queries failed")
	assert.Contains(t, errOut, `Error in query "cat --dog"`)

	_, _, err = run(t, "query", "--file", path, "--policy", "sideways", "cat")
	assert.Error(t, err)

	_, _, err = run(t, "query", "--file", path, "--page-size", "-1", "cat")
	assert.Error(t, err)

	_, _, err = run(t, "query", "--file", filepath.Join(t.TempDir(), "missing.jsonl"), "cat")
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "match", "--file", path, "fluffy cat -dog")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"{ document_id = 1, status = actual, words = [cat] }",
		"{ document_id = 2, status = actual, words = [cat fluffy] }",
		"{ document_id = 3, status = actual, words = [] }",
		"{ document_id = 4, status = actual, words = [] }",
		"{ document_id = 5, status = banned, words = [cat] }",
	}, "\n")+"\n", out)

	out, _, err = run(t, "match", "--file", path, "--id", "2", "--id", "42", "--policy", "parallel", "fluffy")
	require.NoError(t, err)
	assert.Equal(t, "{ document_id = 2, status = actual, words = [fluffy] }\n"+
		"{ document_id = 42, status = removed, words = [] }\n", out)
}

func TestDedupe(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "dedupe", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "Found duplicate document id 5\n1 duplicates removed, 4 documents remain\n", out)
}

func TestIngest(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "ingest", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "documents: 5\n")
	assert.Contains(t, out, "  actual: 4\n")
	assert.Contains(t, out, "  banned: 1\n")
	assert.Contains(t, out, "stop words: a an and in of on the to with\n")
	assert.Contains(t, out, "generation: 5\n")
}

func TestPublish_NothingToSend(t *testing.T) {
	_, _, err := run(t, "publish")
	assert.ErrorContains(t, err, "nothing to publish")
}

func TestLoadtest(t *testing.T) {
	path := writeCorpus(t)
	out, _, err := run(t, "loadtest", "--file", path, "--concurrency", "2", "--duration", "20ms", "fluffy cat", "groomed")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:   5")
	assert.Contains(t, out, "=== Latency ===")
}
