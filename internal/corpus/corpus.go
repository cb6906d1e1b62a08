// Package corpus reads documents from the sources the CLI can index (JSON
// lines files and a PostgreSQL table) and feeds them to a server.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

// Document is one corpus record. A missing status means actual.
type Document struct {
	ID      int                 `json:"id"`
	Text    string              `json:"text"`
	Status  searchserver.Status `json:"status"`
	Ratings []int               `json:"ratings"`
}

// maxLineBytes bounds a single JSON line.
const maxLineBytes = 16 << 20

// ReadJSONL decodes one Document per non-blank line of r.
func ReadJSONL(r io.Reader) ([]Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	var docs []Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return docs, nil
}

// WriteJSONL encodes docs one per line.
func WriteJSONL(w io.Writer, docs []Document) error {
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding document %d: %w", doc.ID, err)
		}
	}
	return nil
}

// Adder is the part of a server the loader writes to.
type Adder interface {
	AddDocument(id int, text string, status searchserver.Status, ratings []int) error
}

// Failure records a document the server rejected.
type Failure struct {
	ID  int
	Err error
}

// Report summarises one Load call.
type Report struct {
	Added    int
	Failures []Failure
}

// Load adds every document to s. Rejected documents are logged and reported
// but do not stop the load. progress, if non-nil, is called after each
// document.
func Load(s Adder, docs []Document, logger *slog.Logger, progress func()) Report {
	if logger == nil {
		logger = slog.Default().With("component", "corpus")
	}
	var report Report
	for _, doc := range docs {
		if err := s.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings); err != nil {
			logger.Warn("document rejected", "doc_id", doc.ID, "error", err)
			report.Failures = append(report.Failures, Failure{ID: doc.ID, Err: err})
		} else {
			report.Added++
		}
		if progress != nil {
			progress()
		}
	}
	return report
}
