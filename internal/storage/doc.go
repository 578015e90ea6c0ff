// Package storage provides SQLite FTS5 persistence for converted
// documentation pages.
//
// Every (app, source) pair owns an independent database file holding a
// single full-text table of its pages. Databases are created lazily and
// rebuilt wholesale when a source is indexed.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migration versions
//   - docs: FTS5 virtual table (path UNINDEXED, title, content)
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.chmdocs/cache/app/manual/index/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.UpsertDocument(ctx, &storage.Document{
//	    Path:    "intro/getting_started.md",
//	    Title:   "Getting Started",
//	    Content: pageMarkdown,
//	})
//
//	hits, err := store.SearchDocuments(ctx, "install", 10)
//	for _, hit := range hits {
//	    fmt.Printf("%s (%s): %.2f\n", hit.Title, hit.Path, hit.Score)
//	}
//
// # Transactions
//
// Index rebuilds run inside one transaction so readers never observe a
// half-built index:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.DeleteAllDocuments(ctx)
//	for _, doc := range docs {
//	    _ = tx.UpsertDocument(ctx, &doc)
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Match Queries
//
// SearchDocuments does not hand user input to FTS5 directly. Each
// whitespace-separated term is quoted and given a prefix wildcard, so
// "configur" matches "configuration", matching is case-insensitive, and
// operators like NEAR or unbalanced quotes cannot cause syntax errors.
// Scores come from bm25(), negated and rounded so that larger means more
// relevant and zero is the floor.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (fts5 tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Native C FTS5 implementation
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "fts5"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - FTS5 included, no C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
