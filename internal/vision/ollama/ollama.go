package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/whatthefridge/internal/vision"
)

// generateRequest is the non-streaming body of POST /api/generate.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// OllamaRecognizer reads ingredients from a photo with a local multimodal
// model such as llava or moondream.
type OllamaRecognizer struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaRecognizer(host, model string) *OllamaRecognizer {
	return &OllamaRecognizer{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{},
	}
}

func (r *OllamaRecognizer) Recognize(ctx context.Context, image []byte, _ string) ([]string, error) {
	if len(image) == 0 {
		return nil, errors.New("ollama: empty image")
	}

	payload, err := json.Marshal(generateRequest{
		Model:  r.model,
		Prompt: vision.IngredientPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to recognize ingredients: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama: failed to decode response: %w", err)
	}
	return vision.ParseIngredients(out.Response), nil
}
