package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Statistics summarizes a bulk index operation
type Statistics struct {
	SourcesIndexed int
	SourcesSkipped int
	SourcesFailed  int
	PagesIndexed   int
	Duration       time.Duration
	ErrorMessages  []string
}

// SourceStatus describes the on-disk state of one configured source
type SourceStatus struct {
	App     string  `json:"app"`
	Source  string  `json:"source"`
	ChmPath string  `json:"chm_path"`
	Ready   bool    `json:"ready"`
	Pages   int     `json:"pages"`
	IndexKB float64 `json:"index_size_kb"`
}

// Index prepares sources ahead of first use. The app and source filters
// scope the run like a search would; force reruns every pipeline stage
// even when its marker is present. Only one bulk index may run at a
// time; per-source failures are recorded, not fatal.
func (e *Extractor) Index(ctx context.Context, app, source string, force bool) (*Statistics, error) {
	if !e.indexLock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer e.indexLock.Release()

	targets, err := e.ResolveTargets(app, source)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Track progress with atomic counters
	var (
		indexed int32
		skipped int32
		failed  int32
		pages   int32
	)

	semaphore := make(chan struct{}, e.workers)
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for _, target := range targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			recordFailure := func(err error) {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s/%s: %v", target.App, target.Source, err))
				mu.Unlock()
			}

			alreadyBuilt := e.builtOnDisk(target.App, target.Source)
			if force {
				if err := e.resetSource(target.App, target.Source); err != nil {
					recordFailure(err)
					return nil
				}
				alreadyBuilt = false
			}

			if err := e.EnsureReady(gctx, target.App, target.Source); err != nil {
				recordFailure(err)
				return nil
			}

			if alreadyBuilt {
				atomic.AddInt32(&skipped, 1)
				return nil
			}

			if count, err := e.countPages(gctx, target.App, target.Source); err == nil {
				atomic.AddInt32(&pages, int32(count))
			}
			atomic.AddInt32(&indexed, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.SourcesIndexed = int(indexed)
	stats.SourcesSkipped = int(skipped)
	stats.SourcesFailed = int(failed)
	stats.PagesIndexed = int(pages)
	stats.Duration = time.Since(startTime)

	return stats, nil
}

// builtOnDisk reports whether all three stage markers are present
func (e *Extractor) builtOnDisk(app, source string) bool {
	return hasMarker(e.htmlDir(app, source), markerExtracted) &&
		hasMarker(e.markdownDir(app, source), markerConverted) &&
		hasMarker(e.indexDir(app, source), markerIndexed)
}

// resetSource removes the stage markers and the ready entry so the next
// EnsureReady reruns the whole pipeline
func (e *Extractor) resetSource(app, source string) error {
	markers := []string{
		filepath.Join(e.htmlDir(app, source), markerExtracted),
		filepath.Join(e.markdownDir(app, source), markerConverted),
		filepath.Join(e.indexDir(app, source), markerIndexed),
	}
	for _, marker := range markers {
		if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", marker, err)
		}
	}

	e.mu.Lock()
	delete(e.ready, sourceKey(app, source))
	e.mu.Unlock()
	return nil
}

// countPages returns the number of documents in a source's index
func (e *Extractor) countPages(ctx context.Context, app, source string) (int, error) {
	store, err := e.openStore(app, source)
	if err != nil {
		return 0, err
	}
	return store.CountDocuments(ctx)
}

// Status reports the state of every configured source. Ready reflects
// the on-disk index marker rather than the in-memory ready set, so it
// survives restarts.
func (e *Extractor) Status(ctx context.Context) ([]SourceStatus, error) {
	targets, err := e.ResolveTargets("", "")
	if err != nil {
		return nil, err
	}

	statuses := make([]SourceStatus, 0, len(targets))
	for _, target := range targets {
		st := SourceStatus{
			App:     target.App,
			Source:  target.Source,
			ChmPath: e.apps[target.App][target.Source],
			Ready:   hasMarker(e.indexDir(target.App, target.Source), markerIndexed),
		}
		if st.Ready {
			if store, err := e.openStore(target.App, target.Source); err == nil {
				if count, err := store.CountDocuments(ctx); err == nil {
					st.Pages = count
				}
				if size, err := store.IndexSizeBytes(ctx); err == nil {
					st.IndexKB = float64(size) / 1024
				}
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
