// Package llm defines the text-generation contract the conversation engine
// depends on, plus the prompts shared by every backend.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// FallbackResponse is shown to the user when a backend returns no usable text.
const FallbackResponse = "I apologize, but I couldn't generate a response. Please try again."

// Generator produces a reply to prompt. history holds the prior turns of the
// conversation, oldest first, and does not include prompt itself.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []domain.Message) (string, error)
}

// CustomizePrompt builds the prompt asking the backend to rewrite recipeText
// according to request. servings is ignored when not positive.
func CustomizePrompt(recipeText, request string, servings int) string {
	var servingLine string
	if servings > 0 {
		servingLine = fmt.Sprintf("Adjust for %d servings.", servings)
	}
	return fmt.Sprintf(`Modify this recipe according to the user's request: %s

Original recipe:
%s

%s

Provide the modified recipe with updated ingredients and instructions.`, request, recipeText, servingLine)
}

// Customizer rewrites a recipe for a user's constraint using a Generator.
type Customizer struct {
	gen Generator
}

func NewCustomizer(gen Generator) *Customizer {
	return &Customizer{gen: gen}
}

func (c *Customizer) Customize(ctx context.Context, recipeText, request string, servings int) (string, error) {
	out, err := c.gen.Generate(ctx, CustomizePrompt(recipeText, request, servings), nil)
	if err != nil {
		return "", fmt.Errorf("failed to customize recipe: %w", err)
	}
	return strings.TrimSpace(out), nil
}
