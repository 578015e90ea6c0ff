// Package types provides shared type definitions for the chmdocs MCP server.
//
// This package defines the result shapes that cross component boundaries:
// search hits qualified by app and source, and page listings.
//
// SearchResult carries one full-text match from a source's index:
//
//	result := types.SearchResult{
//	    App:    "myapp",
//	    Source: "manual",
//	    Title:  "Getting Started",
//	    Path:   "intro/getting_started.md",
//	    Score:  4.25,
//	}
//
// Scores are bm25-derived relevance values, negated so that higher is
// better, clamped to be non-negative, and rounded to two decimal places.
// Paths are always relative to the source's converted-page directory and
// use forward slashes.
package types
