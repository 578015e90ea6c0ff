package types

import "errors"

// Domain errors for type validation
var (
	// Search result errors
	ErrMissingApp    = errors.New("app is required")
	ErrMissingSource = errors.New("source is required")
	ErrMissingPath   = errors.New("path is required")
	ErrNegativeScore = errors.New("score cannot be negative")
)
