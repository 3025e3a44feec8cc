package source

import "context"

// Document is one input record: the raw tweet text plus its label.
// Documents are identified by position; loaders must preserve the
// row order of the underlying table.
type Document struct {
	Text          string
	Inappropriate bool
}

// Source loads the full document table into memory.
type Source interface {
	Load(ctx context.Context) ([]Document, error)
}
