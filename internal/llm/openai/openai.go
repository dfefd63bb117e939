package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// completionService is the subset of the chat completions API used here.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type OpenAIGenerator struct {
	chat   completionService
	model  string
	logger *slog.Logger
}

func NewOpenAIGenerator(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *OpenAIGenerator {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIGenerator{chat: &client.Chat.Completions, model: model, logger: logger}
}

func buildMessages(prompt string, history []domain.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, m := range history {
		if m.Role == domain.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return append(msgs, openai.UserMessage(prompt))
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	resp, err := g.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    g.model,
		Messages: buildMessages(prompt, history),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	g.logger.Debug("openai response", "model", g.model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
