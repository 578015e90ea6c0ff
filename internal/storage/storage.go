package storage

import "context"

// Store defines the interface for persisting and querying converted
// documentation pages. Each source gets its own database file.
type Store interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	DeleteAllDocuments(ctx context.Context) error
	SearchDocuments(ctx context.Context, query string, limit int) ([]SearchHit, error)
	CountDocuments(ctx context.Context) (int, error)

	// Status operations
	IndexSizeBytes(ctx context.Context) (int64, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Document is one converted Markdown page stored in the full-text index
type Document struct {
	Path    string // Relative to the source's markdown directory, forward slashes
	Title   string
	Content string
}

// SearchHit is a full-text match within a single source index
type SearchHit struct {
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}
