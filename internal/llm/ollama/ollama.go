package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type OllamaGenerator struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaGenerator(host, model string) *OllamaGenerator {
	return &OllamaGenerator{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: string(domain.RoleUser), Content: prompt})

	payload, err := json.Marshal(chatRequest{Model: g.model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Message.Content, nil
}
