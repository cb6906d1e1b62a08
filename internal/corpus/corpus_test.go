package corpus

import (
	"bytes"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func TestReadJSONL(t *testing.T) {
	input := `{"id": 1, "text": "funny pet", "ratings": [1, 2]}

{"id": 2, "text": "curly hair", "status": "banned"}
`
	docs, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, Document{ID: 1, Text: "funny pet", Status: searchserver.StatusActual, Ratings: []int{1, 2}}, docs[0])
	assert.Equal(t, searchserver.StatusBanned, docs[1].Status)
	assert.Nil(t, docs[1].Ratings)
}

func TestReadJSONL_Errors(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"id\": 1}\n{broken\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadJSONL(strings.NewReader(`{"id": 1, "status": "deleted"}`))
	assert.Error(t, err)
}

func TestWriteJSONL_RoundTrip(t *testing.T) {
	docs := []Document{
		{ID: 3, Text: "a b", Status: searchserver.StatusIrrelevant, Ratings: []int{-1}},
		{ID: 4, Text: "c"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, docs))
	assert.Contains(t, buf.String(), `"status":"irrelevant"`)

	got, err := ReadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestLoad(t *testing.T) {
	s, err := searchserver.NewFromText("and", searchserver.WithLogger(logger.Discard()))
	require.NoError(t, err)
	docs := []Document{
		{ID: 1, Text: "funny pet"},
		{ID: 1, Text: "duplicate id"},
		{ID: -2, Text: "negative id"},
		{ID: 3, Text: "control \x01 char"},
		{ID: 4, Text: "curly hair", Status: searchserver.StatusBanned, Ratings: []int{5}},
	}
	ticks := 0
	report := Load(s, docs, logger.Discard(), func() { ticks++ })

	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Failures, 3)
	assert.Equal(t, 1, report.Failures[0].ID)
	assert.ErrorIs(t, report.Failures[0].Err, apperrors.ErrInvalidDocumentID)
	assert.ErrorIs(t, report.Failures[2].Err, apperrors.ErrInvalidWord)
	assert.Equal(t, len(docs), ticks)
	assert.Equal(t, 2, s.DocumentCount())
}

type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		switch d := d.(type) {
		case *int:
			*d = row[i].(int)
		case *string:
			*d = row[i].(string)
		case sql.Scanner:
			if err := d.Scan(row[i]); err != nil {
				return err
			}
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestScanDocuments(t *testing.T) {
	rs := &fakeRows{data: [][]any{
		{1, "funny pet", "actual", []byte("{7,2,7}")},
		{2, "curly hair", "Banned", []byte("{}")},
		{3, "nasty rat", "irrelevant", []byte("{-4}")},
	}}
	docs, err := scanDocuments(rs)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []int{7, 2, 7}, docs[0].Ratings)
	assert.Equal(t, searchserver.StatusBanned, docs[1].Status)
	assert.Empty(t, docs[1].Ratings)
	assert.Equal(t, []int{-4}, docs[2].Ratings)
}

func TestScanDocuments_Errors(t *testing.T) {
	_, err := scanDocuments(&fakeRows{data: [][]any{{1, "x", "deleted", []byte("{}")}}})
	assert.ErrorContains(t, err, "document 1")

	_, err = scanDocuments(&fakeRows{data: [][]any{{1, "x", "actual", []byte("{a}")}}})
	assert.ErrorContains(t, err, "scanning corpus row")

	_, err = scanDocuments(&fakeRows{err: errors.New("connection reset")})
	assert.ErrorContains(t, err, "connection reset")
}

func TestSelectQuery(t *testing.T) {
	assert.Equal(t, `SELECT id, text, status, ratings FROM "documents" ORDER BY id`, selectQuery("documents"))
	assert.Equal(t, `SELECT id, text, status, ratings FROM "weird""name" ORDER BY id`, selectQuery(`weird"name`))
}
