// Package conversation advances a session by one chat turn and applies
// recipe customizations the user asks for.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/llm"
	"github.com/vbonduro/whatthefridge/internal/metrics"
)

// Customizer rewrites recipe text for a user's request.
type Customizer interface {
	Customize(ctx context.Context, recipeText, request string, servings int) (string, error)
}

type Engine struct {
	gen        llm.Generator
	customizer Customizer
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewEngine creates an Engine. timeout bounds each backend call; zero means
// no bound beyond ctx.
func NewEngine(gen llm.Generator, customizer Customizer, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		gen:        gen,
		customizer: customizer,
		timeout:    timeout,
		metrics:    m,
		logger:     logger,
	}
}

// Advance runs one chat turn against s and returns it. It never fails: a
// backend error is recorded in Session.Error and s is returned as it stood
// when the error happened. Error is cleared at the start of every turn.
func (e *Engine) Advance(ctx context.Context, s *domain.Session, message string) *domain.Session {
	s.Error = ""
	s.Append(domain.RoleUser, message)
	defer func() { s.UpdatedAt = time.Now() }()

	prior := append([]domain.Message(nil), s.History[:len(s.History)-1]...)
	prompt := BuildPrompt(s, message, len(prior) > 0)

	reply, err := e.generate(ctx, prompt, prior)
	e.metrics.RecordChatTurn(ctx, err)
	if err != nil {
		s.Error = fmt.Sprintf("failed to generate response: %v", err)
		e.logger.Error("chat generation failed", "session_id", s.ID, "error", err)
		return s
	}
	if strings.TrimSpace(reply) == "" {
		reply = llm.FallbackResponse
	}

	s.Append(domain.RoleAssistant, reply)
	s.CurrentStep = domain.StepChatCompleted
	e.logger.Info("chat turn complete", "session_id", s.ID, "history", len(s.History))

	if DetectsCustomizationIntent(message) {
		e.customize(ctx, s, message)
	}
	return s
}

// customize rewrites the selected recipe, or the first one when none is
// selected. A recipe that already has a customization keeps it and no call
// is made.
func (e *Engine) customize(ctx context.Context, s *domain.Session, request string) {
	if len(s.Recipes) == 0 {
		return
	}
	idx := s.SelectedIndex
	if s.SelectedRecipe() == nil {
		idx = 0
	}
	target := s.Recipes[idx]
	s.Select(idx)

	if target.Customized != "" {
		e.metrics.RecordCustomization(ctx, true, nil)
		e.logger.Debug("recipe already customized", "session_id", s.ID, "title", target.Title)
		return
	}

	text := target.ReferenceText()
	if text == "" {
		return
	}

	out, err := e.runCustomizer(ctx, text, request, s.ServingSize)
	e.metrics.RecordCustomization(ctx, false, err)
	if err != nil {
		s.Error = fmt.Sprintf("failed to customize recipe: %v", err)
		e.logger.Error("recipe customization failed", "session_id", s.ID, "title", target.Title, "error", err)
		return
	}
	target.Customized = out
	e.logger.Info("recipe customized", "session_id", s.ID, "title", target.Title)
}

func (e *Engine) generate(ctx context.Context, prompt string, history []domain.Message) (reply string, err error) {
	defer recoverInto(&err)
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.gen.Generate(ctx, prompt, history)
}

func (e *Engine) runCustomizer(ctx context.Context, text, request string, servings int) (out string, err error) {
	defer recoverInto(&err)
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.customizer.Customize(ctx, text, request, servings)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
