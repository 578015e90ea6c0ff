package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// SQLiteStore implements the Store interface using SQLite FTS5
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// Document operations

// upsertDocumentWithQuerier is the internal implementation that uses a querier.
// FTS5 tables have no UNIQUE constraints, so the upsert is a delete plus insert.
func (s *SQLiteStore) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM docs WHERE path = ?", doc.Path); err != nil {
		return fmt.Errorf("failed to replace document %s: %w", doc.Path, err)
	}

	query := `
		INSERT INTO docs (path, title, content)
		VALUES (?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query, doc.Path, doc.Title, doc.Content); err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.Path, err)
	}

	return nil
}

// UpsertDocument inserts or replaces a document keyed by path
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

// deleteAllDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteAllDocumentsWithQuerier(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM docs"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// DeleteAllDocuments removes every document, used before a rebuild
func (s *SQLiteStore) DeleteAllDocuments(ctx context.Context) error {
	return s.deleteAllDocumentsWithQuerier(ctx, s.querier())
}

// searchDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) searchDocumentsWithQuerier(ctx context.Context, q querier, query string, limit int) ([]SearchHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT path, title, bm25(docs)
		FROM docs
		WHERE docs MATCH ?
		ORDER BY bm25(docs)
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		var rank float64
		if err := rows.Scan(&hit.Path, &hit.Title, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.Score = relevanceScore(rank)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// SearchDocuments runs a full-text query and returns hits ordered best first
func (s *SQLiteStore) SearchDocuments(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.searchDocumentsWithQuerier(ctx, s.querier(), query, limit)
}

// countDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countDocumentsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM docs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountDocuments returns the number of indexed documents
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int, error) {
	return s.countDocumentsWithQuerier(ctx, s.querier())
}

// IndexSizeBytes reports the on-disk size of the index database
func (s *SQLiteStore) IndexSizeBytes(ctx context.Context) (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to read page size: %w", err)
	}
	return pageCount * pageSize, nil
}

// relevanceScore converts a raw bm25 rank (negative, lower is better)
// into a non-negative score rounded to two decimal places.
func relevanceScore(rank float64) float64 {
	return math.Round(math.Max(-rank, 0)*100) / 100
}

// buildMatchQuery turns free-form user input into an FTS5 MATCH
// expression. Every whitespace-separated term becomes a quoted prefix
// match ("term"*), so partial words match, matching stays
// case-insensitive, and MATCH operators in the input cannot produce
// syntax errors. Terms with no letters or digits tokenize to nothing
// and are dropped; an input reduced to nothing returns "".
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		if !strings.ContainsFunc(term, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			continue
		}
		escaped := strings.ReplaceAll(term, `"`, `""`)
		parts = append(parts, `"`+escaped+`"*`)
	}
	return strings.Join(parts, " ")
}

// Transaction implementations - delegate to main store

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.store.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) DeleteAllDocuments(ctx context.Context) error {
	return t.store.deleteAllDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SearchDocuments(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return t.store.searchDocumentsWithQuerier(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) CountDocuments(ctx context.Context) (int, error) {
	return t.store.countDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) IndexSizeBytes(ctx context.Context) (int64, error) {
	return t.store.IndexSizeBytes(ctx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
