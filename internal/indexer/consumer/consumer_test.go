package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandleMessage(t *testing.T) {
	s, err := searchserver.NewFromText("and", searchserver.WithLogger(logger.Discard()))
	require.NoError(t, err)
	handle := HandleMessage(s)
	ctx := context.Background()

	add := AddEvent(corpus.Document{ID: 7, Text: "funny pet", Ratings: []int{4}})
	assert.Equal(t, "7", add.Key)
	require.NoError(t, handle(ctx, []byte(add.Key), encode(t, add.Value)))
	data, ok := s.Document(7)
	require.True(t, ok)
	assert.Equal(t, 4, data.Rating)

	// A duplicate id is rejected by the server and skipped.
	require.NoError(t, handle(ctx, []byte("7"), encode(t, add.Value)))
	assert.Equal(t, 1, s.DocumentCount())

	remove := RemoveEvent(7)
	require.NoError(t, handle(ctx, []byte(remove.Key), encode(t, remove.Value)))
	assert.Zero(t, s.DocumentCount())

	// Removing again is a no-op.
	require.NoError(t, handle(ctx, []byte(remove.Key), encode(t, remove.Value)))
}

func TestHandleMessage_Skips(t *testing.T) {
	s, err := searchserver.NewFromText("", searchserver.WithLogger(logger.Discard()))
	require.NoError(t, err)
	handle := HandleMessage(s)
	ctx := context.Background()

	assert.NoError(t, handle(ctx, []byte("1"), []byte("{not json")))
	assert.NoError(t, handle(ctx, []byte("1"), []byte(`{"op": "rename", "document": {"id": 1}}`)))
	assert.NoError(t, handle(ctx, []byte("1"), []byte(`{"op": "add", "document": {"id": 1, "status": "lost"}}`)))
	assert.NoError(t, handle(ctx, []byte("2"), []byte(`{"op": "add", "document": {"id": 2, "text": "bad \u0002 word"}}`)))
	assert.Zero(t, s.DocumentCount())
}

func TestEventJSON(t *testing.T) {
	ev := AddEvent(corpus.Document{ID: 1, Text: "x", Status: searchserver.StatusBanned})
	assert.JSONEq(t,
		`{"op":"add","document":{"id":1,"text":"x","status":"banned","ratings":null}}`,
		string(encode(t, ev.Value)),
	)
}
