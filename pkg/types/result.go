package types

// SearchResult is a single full-text match qualified with the app and
// source it came from. Field order matches the JSON emitted to clients.
type SearchResult struct {
	App    string  `json:"app"`
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Path   string  `json:"path"`
	Score  float64 `json:"score"` // non-negative relevance, 2 decimal places
}

// PageInfo identifies one converted page in a listing.
type PageInfo struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.App == "" {
		return ErrMissingApp
	}

	if sr.Source == "" {
		return ErrMissingSource
	}

	if sr.Path == "" {
		return ErrMissingPath
	}

	if sr.Score < 0 {
		return ErrNegativeScore
	}

	return nil
}
