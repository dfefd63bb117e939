package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiGenerator struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

func NewGeminiGenerator(client *genai.Client, model string, logger *slog.Logger) *GeminiGenerator {
	return &GeminiGenerator{models: client.Models, model: model, logger: logger}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	contents := buildContents(prompt, history)

	res, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	text := firstText(res)
	g.logger.Debug("gemini response", "model", g.model, "turns", len(contents), "chars", len(text))
	return text, nil
}

func buildContents(prompt string, history []domain.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

func firstText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	for _, p := range res.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			return p.Text
		}
	}
	return ""
}
