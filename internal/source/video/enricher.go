package video

import (
	"context"
	"fmt"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/source"
)

// Enricher attaches a transcript and the steps derived from it.
type Enricher struct {
	transcripts source.TranscriptFetcher
}

func NewEnricher(transcripts source.TranscriptFetcher) *Enricher {
	return &Enricher{transcripts: transcripts}
}

func (e *Enricher) Enrich(ctx context.Context, r *domain.Recipe) (domain.Patch, error) {
	id := r.VideoID()
	if id == "" {
		return domain.Patch{}, fmt.Errorf("video: recipe %q has no video id", r.Title)
	}

	transcript, err := e.transcripts.Transcript(ctx, id)
	if err != nil {
		return domain.Patch{}, err
	}

	patch := domain.Patch{Transcript: &transcript}
	if steps := DeriveSteps(transcript); len(steps) > 0 {
		patch.Steps = steps
	}
	return patch, nil
}
