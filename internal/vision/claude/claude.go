package claude

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/whatthefridge/internal/vision"
)

// maxTokens comfortably covers a comma-separated list of a few dozen items.
const maxTokens = 512

type ClaudeRecognizer struct {
	client *anthropic.Client
	model  string
}

func NewClaudeRecognizer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeRecognizer {
	return &ClaudeRecognizer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// buildMessages constructs the message payload for a vision request.
func buildMessages(image []byte, mimeType string) []anthropic.Message {
	return []anthropic.Message{{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				vision.NormalizeMIME(mimeType),
				base64.StdEncoding.EncodeToString(image),
			)),
			anthropic.NewTextMessageContent(vision.IngredientPrompt),
		},
	}}
}

func (r *ClaudeRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("failed to recognize ingredients: empty image")
	}

	resp, err := r.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(r.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(image, mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			text = c.GetText()
			break
		}
	}

	return vision.ParseIngredients(text), nil
}
