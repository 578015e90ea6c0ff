package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/chmdocs-mcp/internal/extractor"
	"github.com/dshills/chmdocs-mcp/internal/storage"
	"github.com/dshills/chmdocs-mcp/pkg/types"
)

const (
	// DefaultLimit is used when a request does not specify one
	DefaultLimit = 10
	// MaxLimit caps the number of results a single request may ask for
	MaxLimit = 100
	// DefaultCacheTTL is how long cached responses stay valid
	DefaultCacheTTL = 1 * time.Hour

	cacheSize = 1000
)

// SourceSearcher is the slice of the extractor the searcher depends on:
// resolving scope filters into concrete targets and querying one
// source's index.
type SourceSearcher interface {
	ResolveTargets(app, source string) ([]extractor.Target, error)
	SearchSource(ctx context.Context, app, source, query string, limit int) ([]storage.SearchHit, error)
}

// SearchRequest contains parameters for a search operation. App and
// Source scope the search; both empty means every configured source.
type SearchRequest struct {
	Query    string
	App      string
	Source   string
	Limit    int
	UseCache bool
	CacheTTL time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results         []types.SearchResult
	TotalResults    int
	SourcesSearched int
	Duration        time.Duration
	CacheHit        bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher fans a query out over the scoped source indexes and merges
// the hits
type Searcher struct {
	sources SourceSearcher
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(sources SourceSearcher) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Only possible with a non-positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		sources: sources,
		cache:   cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	targets, err := s.sources.ResolveTargets(req.App, req.Source)
	if err != nil {
		return nil, err
	}

	// Per-target result slots keep the merge order deterministic
	// regardless of goroutine completion order.
	slots := make([][]storage.SearchHit, len(targets))
	g, gctx := errgroup.WithContext(ctx)

	for i, target := range targets {
		g.Go(func() error {
			hits, err := s.sources.SearchSource(gctx, target.App, target.Source, req.Query, req.Limit)
			if err != nil {
				return fmt.Errorf("search %s/%s: %w", target.App, target.Source, err)
			}
			slots[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := mergeHits(targets, slots, req.Limit)

	response := &SearchResponse{
		Results:         results,
		TotalResults:    len(results),
		SourcesSearched: len(targets),
		Duration:        time.Since(startTime),
	}

	if req.UseCache {
		s.storeInCache(req, response)
	}

	return response, nil
}

// mergeHits flattens per-target hits in target order, sorts by score
// descending, and truncates to limit. The stable sort keeps the sorted
// target order for equal scores.
func mergeHits(targets []extractor.Target, slots [][]storage.SearchHit, limit int) []types.SearchResult {
	var merged []types.SearchResult
	for i, hits := range slots {
		for _, hit := range hits {
			merged = append(merged, types.SearchResult{
				App:    targets[i].App,
				Source: targets[i].Source,
				Title:  hit.Title,
				Path:   hit.Path,
				Score:  hit.Score,
			})
		}
	}

	sortResults(merged)

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// sortResults orders results by score in descending order, stable so
// ties keep their target order
func sortResults(results []types.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// validateRequest ensures the search request is valid, filling defaults
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache returns a copy of a valid cached response, or nil on miss
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Copy while holding the read lock so the entry cannot change
	// mid-copy.
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached response. Called after a forced
// reindex, when any cached hit may be stale.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse so cached
// entries are never aliased by callers
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults:    src.TotalResults,
		SourcesSearched: src.SourcesSearched,
		Duration:        src.Duration,
		CacheHit:        src.CacheHit,
		Results:         make([]types.SearchResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(req.App)
	data.WriteString("|")
	data.WriteString(req.Source)
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.Limit))

	return sha256.Sum256([]byte(data.String()))
}
