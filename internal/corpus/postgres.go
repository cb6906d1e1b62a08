package corpus

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/searchserver"
)

// The corpus table is expected to look like:
//
//	CREATE TABLE documents (
//	    id      integer PRIMARY KEY,
//	    text    text    NOT NULL,
//	    status  text    NOT NULL DEFAULT 'actual',
//	    ratings integer[] NOT NULL DEFAULT '{}'
//	);

type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func selectQuery(table string) string {
	return fmt.Sprintf("SELECT id, text, status, ratings FROM %s ORDER BY id", pq.QuoteIdentifier(table))
}

// LoadPostgres reads every document of table in id order.
func LoadPostgres(ctx context.Context, q Querier, table string) ([]Document, error) {
	rs, err := q.QueryContext(ctx, selectQuery(table))
	if err != nil {
		return nil, fmt.Errorf("querying corpus table %s: %w", table, err)
	}
	defer rs.Close()
	return scanDocuments(rs)
}

func scanDocuments(rs rows) ([]Document, error) {
	var docs []Document
	for rs.Next() {
		var (
			doc     Document
			status  string
			ratings []int64
		)
		if err := rs.Scan(&doc.ID, &doc.Text, &status, pq.Array(&ratings)); err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}
		parsed, err := searchserver.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc.ID, err)
		}
		doc.Status = parsed
		doc.Ratings = make([]int, len(ratings))
		for i, r := range ratings {
			doc.Ratings[i] = int(r)
		}
		docs = append(docs, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpus rows: %w", err)
	}
	return docs, nil
}
