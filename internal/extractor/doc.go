// Package extractor coordinates the pipeline that turns CHM archives
// into searchable documentation.
//
// Each configured (app, source) pair runs through three stages under its
// own cache directory:
//
//  1. Extract: unpack the CHM archive with 7z into html/
//  2. Convert: render every HTML page as cleaned Markdown into markdown/
//  3. Index: rebuild the source's SQLite FTS5 index under index/
//
// # Lazy Preparation
//
// Sources are prepared on first use. Every query path calls EnsureReady
// first, which is a no-op once a source is prepared:
//
//	ext := extractor.New(cfg.Apps, cfg.CacheDir)
//	hits, err := ext.SearchSource(ctx, "myapp", "manual", "install", 10)
//
// Concurrent callers for the same source share one pipeline run;
// different sources prepare in parallel.
//
// # Stage Markers
//
// A marker file in each stage directory (.extracted, .converted,
// .indexed) records completion and survives restarts. Deleting a marker
// forces that stage to run again; a forced bulk Index deletes all three.
//
// # Bulk Indexing
//
// Index warms sources ahead of first use and reports statistics:
//
//	stats, err := ext.Index(ctx, "", "", false)
//	fmt.Printf("indexed %d sources in %v\n", stats.SourcesIndexed, stats.Duration)
//
// Only one bulk index may run at a time; concurrent calls fail fast with
// ErrIndexingInProgress. Per-source failures are collected in the
// statistics rather than aborting the run.
package extractor
