package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/pipeline"
	"github.com/vbonduro/whatthefridge/internal/session"
	"github.com/vbonduro/whatthefridge/internal/source"
)

var ErrEmptyMessage = errors.New("message is empty")

// ingredientPipeline is the subset of pipeline.Orchestrator AssistantService requires.
type ingredientPipeline interface {
	Run(ctx context.Context, in pipeline.Input) *domain.Session
}

// chatEngine is the subset of conversation.Engine AssistantService requires.
type chatEngine interface {
	Advance(ctx context.Context, s *domain.Session, message string) *domain.Session
}

// Preferences are optional per-turn settings sent with a chat message. Zero
// values leave the session unchanged.
type Preferences struct {
	ServingSize   int
	CookingMethod string
}

type AssistantService struct {
	pipeline    ingredientPipeline
	engine      chatEngine
	store       session.Store
	transcripts source.TranscriptFetcher
	logger      *slog.Logger
}

func NewAssistantService(
	p ingredientPipeline,
	engine chatEngine,
	store session.Store,
	transcripts source.TranscriptFetcher,
	logger *slog.Logger,
) *AssistantService {
	return &AssistantService{
		pipeline:    p,
		engine:      engine,
		store:       store,
		transcripts: transcripts,
		logger:      logger,
	}
}

// SubmitIngredients runs the ingredient pipeline and stores the resulting
// session. A pipeline failure is reported through Session.Error, not the
// returned error; the session is stored either way.
func (s *AssistantService) SubmitIngredients(ctx context.Context, ingredients []string, craving string, image []byte, mimeType string) (*domain.Session, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	s.logger.Info("submit ingredients started", "ingredients", len(cleaned), "has_image", len(image) > 0, "mime_type", mimeType)

	sess := s.pipeline.Run(ctx, pipeline.Input{
		Ingredients: cleaned,
		Craving:     strings.TrimSpace(craving),
		Image:       image,
		ImageMIME:   mimeType,
	})
	sess.ID = uuid.NewString()

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("submit ingredients complete", "session_id", sess.ID, "recipes", len(sess.Recipes), "error", sess.Error)
	return sess, nil
}

// Chat runs one conversation turn on the session with the given id. Turns on
// the same session are serialized.
func (s *AssistantService) Chat(ctx context.Context, id, message string, prefs Preferences) (*domain.Session, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	unlock := s.store.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if prefs.ServingSize > 0 {
		sess.ServingSize = prefs.ServingSize
	}
	if prefs.CookingMethod != "" {
		sess.CookingMethod = prefs.CookingMethod
	}

	start := time.Now()
	sess = s.engine.Advance(ctx, sess, message)

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("chat turn stored", "session_id", id, "duration_ms", time.Since(start).Milliseconds(), "error", sess.Error)
	return sess, nil
}

func (s *AssistantService) Recipes(ctx context.Context, id string) ([]*domain.Recipe, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Recipes, nil
}

// Transcript fetches the transcript for a video. A video without captions
// yields domain.ErrNotFound.
func (s *AssistantService) Transcript(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.transcripts.Transcript(ctx, videoID)
	if errors.Is(err, source.ErrNoContent) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}
	return transcript, nil
}
