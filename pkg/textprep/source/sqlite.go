package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultQuery is used when no query is configured. ORDER BY rowid keeps
// the document order stable across runs.
const DefaultQuery = "SELECT text, inappropriate FROM tweets ORDER BY rowid"

// SQLiteSource reads documents from a SQLite database. The query must
// return exactly two columns: the text and an integer 0/1 label.
type SQLiteSource struct {
	Path  string
	Query string
}

func (s *SQLiteSource) Load(ctx context.Context) ([]Document, error) {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	query := s.Query
	if query == "" {
		query = DefaultQuery
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var text string
		var label int64
		if err := rows.Scan(&text, &label); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(docs), err)
		}
		docs = append(docs, Document{Text: text, Inappropriate: label != 0})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return docs, nil
}
