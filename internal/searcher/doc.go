// Package searcher coordinates full-text search across configured CHM
// sources.
//
// A request may target one (app, source) pair, every source of one app,
// or every configured source. The searcher resolves the target set,
// queries each source index concurrently, merges the per-source hits
// into a single score-ordered list, and truncates it to the requested
// limit.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(ext)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:    "connection pooling",
//	    App:      "myapp",
//	    Limit:    10,
//	    UseCache: true,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("%s/%s %s (score: %.2f)\n", r.App, r.Source, r.Path, r.Score)
//	}
//
// # Caching
//
// Responses are cached in an in-memory LRU keyed by a hash of the
// query, scope, and limit. Entries expire after the request TTL
// (default one hour) and the whole cache is purged by InvalidateCache,
// which the server calls after a forced reindex.
package searcher
