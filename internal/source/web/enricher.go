package web

import (
	"context"
	"fmt"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/source"
)

// Enricher attaches the content extracted from a recipe's page.
type Enricher struct {
	pages source.PageExtractor
}

func NewEnricher(pages source.PageExtractor) *Enricher {
	return &Enricher{pages: pages}
}

// Enrich maps the page onto a patch. Extracted instructions become the
// recipe's steps; fields the page lacked are left out of the patch.
func (e *Enricher) Enrich(ctx context.Context, r *domain.Recipe) (domain.Patch, error) {
	if r.URL == "" {
		return domain.Patch{}, fmt.Errorf("web: recipe %q has no url", r.Title)
	}

	page, err := e.pages.Extract(ctx, r.URL)
	if err != nil {
		return domain.Patch{}, err
	}

	var patch domain.Patch
	if page.Title != "" {
		patch.Title = &page.Title
	}
	if page.Description != "" {
		patch.Description = &page.Description
	}
	if len(page.Ingredients) > 0 {
		patch.Ingredients = page.Ingredients
	}
	if len(page.Instructions) > 0 {
		patch.Steps = page.Instructions
	}
	return patch, nil
}
