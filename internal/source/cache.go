package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// Cache persists fetched enrichment content. Lookups of unknown keys return
// domain.ErrNotFound.
type Cache interface {
	GetTranscript(ctx context.Context, videoID string) (string, error)
	PutTranscript(ctx context.Context, videoID, transcript string) error
	GetPage(ctx context.Context, url string) (*Page, error)
	PutPage(ctx context.Context, url string, page *Page) error
}

// CachedTranscripts serves transcripts from a Cache, falling through to next on
// a miss. Only successful fetches are stored.
type CachedTranscripts struct {
	next   TranscriptFetcher
	cache  Cache
	logger *slog.Logger
}

func NewCachedTranscripts(next TranscriptFetcher, cache Cache, logger *slog.Logger) *CachedTranscripts {
	return &CachedTranscripts{next: next, cache: cache, logger: logger}
}

func (c *CachedTranscripts) Transcript(ctx context.Context, videoID string) (string, error) {
	cached, err := c.cache.GetTranscript(ctx, videoID)
	if err == nil {
		c.logger.Debug("transcript cache hit", "video_id", videoID)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("transcript cache read failed", "video_id", videoID, "error", err)
	}

	transcript, err := c.next.Transcript(ctx, videoID)
	if err != nil {
		return "", err
	}

	if err := c.cache.PutTranscript(ctx, videoID, transcript); err != nil {
		c.logger.Warn("transcript cache write failed", "video_id", videoID, "error", err)
	}
	return transcript, nil
}

// CachedPages is the PageExtractor counterpart of CachedTranscripts.
type CachedPages struct {
	next   PageExtractor
	cache  Cache
	logger *slog.Logger
}

func NewCachedPages(next PageExtractor, cache Cache, logger *slog.Logger) *CachedPages {
	return &CachedPages{next: next, cache: cache, logger: logger}
}

func (c *CachedPages) Extract(ctx context.Context, url string) (*Page, error) {
	cached, err := c.cache.GetPage(ctx, url)
	if err == nil {
		c.logger.Debug("page cache hit", "url", url)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("page cache read failed", "url", url, "error", err)
	}

	page, err := c.next.Extract(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutPage(ctx, url, page); err != nil {
		c.logger.Warn("page cache write failed", "url", url, "error", err)
	}
	return page, nil
}
