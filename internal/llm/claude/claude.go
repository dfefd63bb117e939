package claude

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

const maxTokens = 2048

type ClaudeGenerator struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

func NewClaudeGenerator(apiKey, model string, logger *slog.Logger, opts ...anthropic.ClientOption) *ClaudeGenerator {
	return &ClaudeGenerator{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		logger: logger,
	}
}

func buildMessages(prompt string, history []domain.Message) []anthropic.Message {
	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role == domain.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantTextMessage(m.Content))
		} else {
			msgs = append(msgs, anthropic.NewUserTextMessage(m.Content))
		}
	}
	return append(msgs, anthropic.NewUserTextMessage(prompt))
}

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(prompt, history),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			g.logger.Debug("claude response", "model", g.model, "stop_reason", resp.StopReason)
			return c.GetText(), nil
		}
	}
	return "", nil
}
