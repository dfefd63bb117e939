package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

type mockCompletions struct {
	resp   *openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockCompletions) New(_ context.Context, params openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func newGenerator(m *mockCompletions) *OpenAIGenerator {
	return &OpenAIGenerator{chat: m, model: "gpt-test", logger: slog.Default()}
}

func TestOpenAIGenerate(t *testing.T) {
	mock := &mockCompletions{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Bake it at 180C."}},
		},
	}}
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}

	out, err := newGenerator(mock).Generate(context.Background(), "how long?", history)
	require.NoError(t, err)
	assert.Equal(t, "Bake it at 180C.", out)
	assert.Equal(t, "gpt-test", mock.params.Model)
	require.Len(t, mock.params.Messages, 3)
	assert.NotNil(t, mock.params.Messages[0].OfUser)
	assert.NotNil(t, mock.params.Messages[1].OfAssistant)
	assert.NotNil(t, mock.params.Messages[2].OfUser)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	mock := &mockCompletions{resp: &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}}

	out, err := newGenerator(mock).Generate(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAIGenerateError(t *testing.T) {
	mock := &mockCompletions{err: errors.New("rate limited")}

	_, err := newGenerator(mock).Generate(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "rate limited")
}
