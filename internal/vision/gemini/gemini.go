package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/vbonduro/whatthefridge/internal/vision"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiRecognizer struct {
	models contentGenerator
	model  string
}

func NewGeminiRecognizer(client *genai.Client, model string) *GeminiRecognizer {
	return &GeminiRecognizer{models: client.Models, model: model}
}

func (r *GeminiRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("failed to recognize ingredients: empty image")
	}

	res, err := r.models.GenerateContent(ctx, r.model, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, vision.NormalizeMIME(mimeType)),
			genai.NewPartFromText(vision.IngredientPrompt),
		}, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}

	return vision.ParseIngredients(firstText(res)), nil
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
