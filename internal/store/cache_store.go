package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/source"
)

// CacheStore persists transcripts and extracted pages in SQLite. It satisfies
// source.Cache.
type CacheStore struct {
	db *sql.DB
}

func NewCacheStore(db *sql.DB) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) GetTranscript(ctx context.Context, videoID string) (string, error) {
	var transcript string
	err := s.db.QueryRowContext(ctx, `
		SELECT transcript FROM transcripts WHERE video_id = ?
	`, videoID).Scan(&transcript)

	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get transcript: %w", err)
	}

	return transcript, nil
}

func (s *CacheStore) PutTranscript(ctx context.Context, videoID, transcript string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (video_id, transcript) VALUES (?, ?)
		ON CONFLICT(video_id) DO UPDATE SET transcript = excluded.transcript, fetched_at = datetime('now')
	`, videoID, transcript)
	if err != nil {
		return fmt.Errorf("failed to put transcript: %w", err)
	}
	return nil
}

func (s *CacheStore) GetPage(ctx context.Context, url string) (*source.Page, error) {
	page := &source.Page{}
	var ingredients, instructions string
	err := s.db.QueryRowContext(ctx, `
		SELECT title, description, ingredients, instructions FROM pages WHERE url = ?
	`, url).Scan(&page.Title, &page.Description, &ingredients, &instructions)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	if err := json.Unmarshal([]byte(ingredients), &page.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode page ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(instructions), &page.Instructions); err != nil {
		return nil, fmt.Errorf("failed to decode page instructions: %w", err)
	}

	return page, nil
}

func (s *CacheStore) PutPage(ctx context.Context, url string, page *source.Page) error {
	ingredients, err := json.Marshal(nonNil(page.Ingredients))
	if err != nil {
		return fmt.Errorf("failed to encode page ingredients: %w", err)
	}
	instructions, err := json.Marshal(nonNil(page.Instructions))
	if err != nil {
		return fmt.Errorf("failed to encode page instructions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (url, title, description, ingredients, instructions) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			ingredients = excluded.ingredients,
			instructions = excluded.instructions,
			fetched_at = datetime('now')
	`, url, page.Title, page.Description, string(ingredients), string(instructions))
	if err != nil {
		return fmt.Errorf("failed to put page: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
