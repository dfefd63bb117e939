// Package source holds the contracts for recipe sources and enrichers, and
// the pieces shared by the video and web implementations.
package source

import (
	"context"
	"errors"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// ErrNoContent is returned by fetchers when the upstream has nothing usable,
// for example a video without captions or a page with no recipe on it.
var ErrNoContent = errors.New("no content")

// Searcher finds recipe stubs for a query. Implementations return at most
// limit results and an empty slice when upstream data is missing or partial.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*domain.Recipe, error)
}

// Enricher fetches the deep content for one recipe and returns it as a patch.
// It must not mutate r.
type Enricher interface {
	Enrich(ctx context.Context, r *domain.Recipe) (domain.Patch, error)
}

// TranscriptFetcher returns the full transcript for a video.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// Page is the structured content extracted from a recipe web page.
type Page struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// PageExtractor fetches and extracts a recipe page.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (*Page, error)
}

// Limit truncates recipes to at most n entries.
func Limit(recipes []*domain.Recipe, n int) []*domain.Recipe {
	if n < 0 {
		n = 0
	}
	if len(recipes) > n {
		return recipes[:n]
	}
	return recipes
}
