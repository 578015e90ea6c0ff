package extractor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/chmdocs-mcp/internal/convert"
	"github.com/dshills/chmdocs-mcp/internal/storage"
	"github.com/dshills/chmdocs-mcp/pkg/types"
)

// Stage markers. A marker file in a stage directory records that the
// stage completed; deleting it forces the stage to run again.
const (
	markerExtracted = ".extracted"
	markerConverted = ".converted"
	markerIndexed   = ".indexed"

	indexDBFile = "index.db"
)

// Extractor coordinates the per-source pipeline that turns CHM archives
// into searchable Markdown: extract (7z) -> convert (HTML to Markdown)
// -> index (FTS5). Sources are prepared lazily on first use.
type Extractor struct {
	apps     map[string]map[string]string
	cacheDir string
	conv     *convert.Converter
	workers  int

	mu     sync.Mutex
	ready  map[string]bool          // sources verified since process start
	stores map[string]storage.Store // open index handles, one per source

	flight    singleflight.Group // dedups concurrent pipeline runs per source
	indexLock IndexLock          // serializes bulk Index operations
}

// Target identifies one (app, source) pair
type Target struct {
	App    string
	Source string
}

// New creates an Extractor for the configured apps, rooted at cacheDir
func New(apps map[string]map[string]string, cacheDir string) *Extractor {
	return &Extractor{
		apps:     apps,
		cacheDir: cacheDir,
		conv:     convert.NewConverter(),
		workers:  runtime.NumCPU(),
		ready:    make(map[string]bool),
		stores:   make(map[string]storage.Store),
	}
}

// Close releases all open index handles
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for key, store := range e.stores {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.stores, key)
	}
	return firstErr
}

// Directory layout: <cacheDir>/<app>/<source>/{html,markdown,index}

func (e *Extractor) sourceDir(app, source string) string {
	return filepath.Join(e.cacheDir, app, source)
}

func (e *Extractor) htmlDir(app, source string) string {
	return filepath.Join(e.sourceDir(app, source), "html")
}

func (e *Extractor) markdownDir(app, source string) string {
	return filepath.Join(e.sourceDir(app, source), "markdown")
}

func (e *Extractor) indexDir(app, source string) string {
	return filepath.Join(e.sourceDir(app, source), "index")
}

// sourceKey identifies one (app, source) pair in maps and singleflight
func sourceKey(app, source string) string {
	return app + "/" + source
}

func hasMarker(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func touchMarker(dir, name string) error {
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
		return fmt.Errorf("failed to write marker %s: %w", name, err)
	}
	return nil
}

// Validation

func (e *Extractor) validateApp(app string) error {
	if _, ok := e.apps[app]; !ok {
		return fmt.Errorf("%w %q. Available: %s", ErrUnknownApp, app, nameList(mapKeys(e.apps)))
	}
	return nil
}

func (e *Extractor) validateSource(app, source string) error {
	if err := e.validateApp(app); err != nil {
		return err
	}
	if _, ok := e.apps[app][source]; !ok {
		return fmt.Errorf("%w %q in app %q. Available: %s", ErrUnknownSource, source, app, nameList(mapKeys(e.apps[app])))
	}
	return nil
}

// ResolveTargets expands optional app/source filters into a sorted list
// of concrete targets: one pair, all of an app's sources, or everything.
func (e *Extractor) ResolveTargets(app, source string) ([]Target, error) {
	if source != "" && app == "" {
		return nil, ErrSourceWithoutApp
	}

	if app != "" && source != "" {
		if err := e.validateSource(app, source); err != nil {
			return nil, err
		}
		return []Target{{App: app, Source: source}}, nil
	}

	if app != "" {
		if err := e.validateApp(app); err != nil {
			return nil, err
		}
		targets := make([]Target, 0, len(e.apps[app]))
		for src := range e.apps[app] {
			targets = append(targets, Target{App: app, Source: src})
		}
		sortTargets(targets)
		return targets, nil
	}

	var targets []Target
	for a, sources := range e.apps {
		for src := range sources {
			targets = append(targets, Target{App: a, Source: src})
		}
	}
	sortTargets(targets)
	return targets, nil
}

func sortTargets(targets []Target) {
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].App != targets[j].App {
			return targets[i].App < targets[j].App
		}
		return targets[i].Source < targets[j].Source
	})
}

// Pipeline

// EnsureReady prepares a source for querying, running whichever pipeline
// stages have not completed yet. Concurrent callers for the same source
// share one run; distinct sources prepare independently.
func (e *Extractor) EnsureReady(ctx context.Context, app, source string) error {
	key := sourceKey(app, source)

	e.mu.Lock()
	done := e.ready[key]
	e.mu.Unlock()
	if done {
		return nil
	}

	if err := e.validateSource(app, source); err != nil {
		return err
	}

	_, err, _ := e.flight.Do(key, func() (interface{}, error) {
		if err := e.prepare(ctx, app, source); err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.ready[key] = true
		e.mu.Unlock()
		return nil, nil
	})
	return err
}

// prepare runs the three pipeline stages in order
func (e *Extractor) prepare(ctx context.Context, app, source string) error {
	if err := e.extract(ctx, app, source, e.apps[app][source]); err != nil {
		return err
	}
	if err := e.convertPages(ctx, app, source); err != nil {
		return err
	}
	return e.buildIndex(ctx, app, source)
}

// convertPages renders every extracted HTML page as Markdown, mirroring
// the directory layout under markdown/. Single-page failures are logged
// and skipped so one broken page cannot poison a whole archive.
func (e *Extractor) convertPages(ctx context.Context, app, source string) error {
	mdDir := e.markdownDir(app, source)
	if hasMarker(mdDir, markerConverted) {
		return nil
	}

	htmlDir := e.htmlDir(app, source)
	pages, err := findPages(htmlDir, ".htm", ".html")
	if err != nil {
		return fmt.Errorf("failed to scan extracted pages: %w", err)
	}

	if err := os.MkdirAll(mdDir, 0755); err != nil {
		return fmt.Errorf("failed to create markdown dir: %w", err)
	}

	semaphore := make(chan struct{}, e.workers)
	g, gctx := errgroup.WithContext(ctx)

	for _, page := range pages {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if err := e.convertPage(htmlDir, mdDir, page); err != nil {
				log.Printf("failed to convert %s, skipping: %v", page, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return touchMarker(mdDir, markerConverted)
}

// convertPage converts one HTML file to Markdown on disk
func (e *Extractor) convertPage(htmlDir, mdDir, relPath string) error {
	data, err := os.ReadFile(filepath.Join(htmlDir, filepath.FromSlash(relPath)))
	if err != nil {
		return err
	}

	// CHM pages are frequently not valid UTF-8; replace bad sequences
	// rather than dropping the page.
	html := strings.ToValidUTF8(string(data), string(utf8.RuneError))

	markdown, err := e.conv.Convert(html)
	if err != nil {
		return err
	}

	outPath := filepath.Join(mdDir, filepath.FromSlash(replaceExt(relPath, ".md")))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(markdown), 0644)
}

// buildIndex rebuilds the source's FTS index from its Markdown pages.
// The rebuild runs in a single transaction so searches never observe a
// half-built index.
func (e *Extractor) buildIndex(ctx context.Context, app, source string) error {
	idxDir := e.indexDir(app, source)
	if hasMarker(idxDir, markerIndexed) {
		return nil
	}

	if err := os.MkdirAll(idxDir, 0755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	store, err := e.openStore(app, source)
	if err != nil {
		return err
	}

	mdDir := e.markdownDir(app, source)
	pages, err := findPages(mdDir, ".md")
	if err != nil {
		return fmt.Errorf("failed to scan converted pages: %w", err)
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteAllDocuments(ctx); err != nil {
		return err
	}

	for _, page := range pages {
		content, err := os.ReadFile(filepath.Join(mdDir, filepath.FromSlash(page)))
		if err != nil {
			log.Printf("failed to read %s, skipping: %v", page, err)
			continue
		}
		doc := &storage.Document{
			Path:    page,
			Title:   pageTitle(string(content), page),
			Content: string(content),
		}
		if err := tx.UpsertDocument(ctx, doc); err != nil {
			log.Printf("failed to index %s, skipping: %v", page, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}

	return touchMarker(idxDir, markerIndexed)
}

// openStore returns the source's index store, opening it on first use
func (e *Extractor) openStore(app, source string) (storage.Store, error) {
	key := sourceKey(app, source)

	e.mu.Lock()
	defer e.mu.Unlock()

	if store, ok := e.stores[key]; ok {
		return store, nil
	}

	store, err := storage.NewSQLiteStore(filepath.Join(e.indexDir(app, source), indexDBFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open index for %s: %w", key, err)
	}
	e.stores[key] = store
	return store, nil
}

// Queries

// SearchSource queries one source's index, preparing it if needed
func (e *Extractor) SearchSource(ctx context.Context, app, source, query string, limit int) ([]storage.SearchHit, error) {
	if err := e.EnsureReady(ctx, app, source); err != nil {
		return nil, err
	}

	store, err := e.openStore(app, source)
	if err != nil {
		return nil, err
	}
	return store.SearchDocuments(ctx, query, limit)
}

// ReadPage returns the Markdown content of one converted page. The path
// is interpreted relative to the source's markdown directory and may not
// escape it.
func (e *Extractor) ReadPage(ctx context.Context, app, source, path string) (string, error) {
	if err := e.EnsureReady(ctx, app, source); err != nil {
		return "", err
	}

	cleaned := filepath.FromSlash(path)
	if filepath.IsAbs(cleaned) {
		return "", ErrInvalidPath
	}

	mdDir := e.markdownDir(app, source)
	resolved := filepath.Join(mdDir, cleaned)
	rel, err := filepath.Rel(mdDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat page: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, path)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(content), nil
}

// ListPages lists converted pages sorted by path, windowed by offset and
// limit
func (e *Extractor) ListPages(ctx context.Context, app, source string, limit, offset int) ([]types.PageInfo, error) {
	if err := e.EnsureReady(ctx, app, source); err != nil {
		return nil, err
	}

	mdDir := e.markdownDir(app, source)
	pages, err := findPages(mdDir, ".md")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(pages) {
		offset = len(pages)
	}
	end := offset + limit
	if end > len(pages) || end < offset {
		end = len(pages)
	}

	infos := make([]types.PageInfo, 0, end-offset)
	for _, page := range pages[offset:end] {
		// Title extraction is best effort; fall back to the path
		title := page
		if content, err := os.ReadFile(filepath.Join(mdDir, filepath.FromSlash(page))); err == nil {
			title = pageTitle(string(content), page)
		}
		infos = append(infos, types.PageInfo{Title: title, Path: page})
	}
	return infos, nil
}

// ListApps returns the configured app names, sorted
func (e *Extractor) ListApps() []string {
	names := mapKeys(e.apps)
	sort.Strings(names)
	return names
}

// ListSources returns an app's source names, sorted
func (e *Extractor) ListSources(app string) ([]string, error) {
	if err := e.validateApp(app); err != nil {
		return nil, err
	}
	names := mapKeys(e.apps[app])
	sort.Strings(names)
	return names, nil
}

// Helpers

// pageTitle extracts a title from Markdown content: the first non-empty
// line with leading heading markers stripped, or fallback when no line
// yields one.
func pageTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if title := strings.TrimSpace(strings.TrimLeft(stripped, "#")); title != "" {
			return title
		}
		break
	}
	return fallback
}

// findPages returns relative, forward-slash paths of files under root
// with one of the given extensions, sorted. A missing root yields an
// empty list.
func findPages(root string, exts ...string) ([]string, error) {
	var pages []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == want {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				pages = append(pages, filepath.ToSlash(rel))
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

// replaceExt swaps a path's file extension
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// nameList renders names for error messages: "a, b" or "(none)"
func nameList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
