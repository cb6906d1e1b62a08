// Package consumer applies document events read from Kafka to a search
// server. Events for one document share a key, so adds and removes for it
// arrive in order.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Event is the JSON value of a document-events message. Remove events only
// need Document.ID.
type Event struct {
	Op       Op              `json:"op"`
	Document corpus.Document `json:"document"`
}

// AddEvent wraps doc in an add event keyed by its id.
func AddEvent(doc corpus.Document) kafka.Event {
	return kafka.Event{Key: strconv.Itoa(doc.ID), Value: Event{Op: OpAdd, Document: doc}}
}

// RemoveEvent builds a remove event for id.
func RemoveEvent(id int) kafka.Event {
	return kafka.Event{Key: strconv.Itoa(id), Value: Event{Op: OpRemove, Document: corpus.Document{ID: id}}}
}

// Target is the part of a server the handler mutates.
type Target interface {
	AddDocument(id int, text string, status searchserver.Status, ratings []int) error
	RemoveDocument(id int) bool
}

// HandleMessage returns a MessageHandler that applies each event to target.
// Malformed events and documents the server rejects are logged and skipped
// so they are committed rather than retried forever. The consumer calls the
// handler from a single goroutine, which keeps the server's single-writer
// rule intact.
func HandleMessage(target Target) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		doc := event.Document
		switch event.Op {
		case OpAdd:
			err := target.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings)
			switch {
			case errors.Is(err, searchserver.ErrInvalidDocumentID), errors.Is(err, searchserver.ErrInvalidWord):
				logger.Warn("document rejected", "doc_id", doc.ID, "error", err)
				return nil
			case err != nil:
				return fmt.Errorf("indexing document %d: %w", doc.ID, err)
			}
			logger.Debug("document indexed", "doc_id", doc.ID)
		case OpRemove:
			removed := target.RemoveDocument(doc.ID)
			logger.Debug("document removed", "doc_id", doc.ID, "found", removed)
		default:
			logger.Error("unknown document event", "op", event.Op, "key", string(key))
		}
		return nil
	}
}
