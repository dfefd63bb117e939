package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/llm"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type generateCall struct {
	prompt  string
	history []domain.Message
}

type stubGenerator struct {
	reply string
	err   error
	calls []generateCall
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, history []domain.Message) (string, error) {
	g.calls = append(g.calls, generateCall{prompt: prompt, history: history})
	return g.reply, g.err
}

type customizeCall struct {
	text     string
	request  string
	servings int
}

type stubCustomizer struct {
	out   string
	err   error
	calls []customizeCall
}

func (c *stubCustomizer) Customize(_ context.Context, text, request string, servings int) (string, error) {
	c.calls = append(c.calls, customizeCall{text: text, request: request, servings: servings})
	return c.out, c.err
}

func newTestEngine(gen *stubGenerator, cust *stubCustomizer) *Engine {
	return NewEngine(gen, cust, 0, nil, discardLogger)
}

func sessionWithRecipe() *domain.Session {
	s := domain.NewSession([]string{"egg", "rice"}, "")
	s.Recipes = []*domain.Recipe{domain.NewVideoRecipe("abc", "Egg Fried Rice", "u", "")}
	return s
}

func TestAdvanceAppendsTurns(t *testing.T) {
	gen := &stubGenerator{reply: "Try fried rice."}
	e := newTestEngine(gen, &stubCustomizer{})
	s := domain.NewSession([]string{"egg"}, "")

	s = e.Advance(context.Background(), s, "What can I make?")

	assert.Empty(t, s.Error)
	assert.Equal(t, domain.StepChatCompleted, s.CurrentStep)
	require.Len(t, s.History, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "What can I make?"}, s.History[0])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "Try fried rice."}, s.History[1])

	require.Len(t, gen.calls, 1)
	assert.Empty(t, gen.calls[0].history)
	assert.Contains(t, gen.calls[0].prompt, "The user has these ingredients: egg")
	assert.Contains(t, gen.calls[0].prompt, "Please help the user")
}

func TestAdvancePassesPriorHistory(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	e := newTestEngine(gen, &stubCustomizer{})
	s := domain.NewSession(nil, "")

	e.Advance(context.Background(), s, "first")
	e.Advance(context.Background(), s, "second")

	require.Len(t, gen.calls, 2)
	assert.Equal(t, "second", gen.calls[1].prompt)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "ok"},
	}, gen.calls[1].history)
	assert.Len(t, s.History, 4)
}

func TestAdvanceBlankReplyUsesFallback(t *testing.T) {
	e := newTestEngine(&stubGenerator{reply: "  \n"}, &stubCustomizer{})
	s := e.Advance(context.Background(), domain.NewSession(nil, ""), "hi")

	assert.Empty(t, s.Error)
	assert.Equal(t, llm.FallbackResponse, s.History[len(s.History)-1].Content)
}

func TestAdvanceGeneratorErrorIsRecorded(t *testing.T) {
	e := newTestEngine(&stubGenerator{err: errors.New("503 unavailable")}, &stubCustomizer{})
	s := sessionWithRecipe()
	s.CurrentStep = domain.StepDetailsExtracted

	s = e.Advance(context.Background(), s, "hello")

	assert.Contains(t, s.Error, "503 unavailable")
	assert.Equal(t, domain.StepDetailsExtracted, s.CurrentStep)
	require.Len(t, s.History, 1)
	assert.Equal(t, domain.RoleUser, s.History[0].Role)
}

func TestAdvanceClearsPreviousError(t *testing.T) {
	e := newTestEngine(&stubGenerator{reply: "ok"}, &stubCustomizer{})
	s := domain.NewSession(nil, "")
	s.Error = "earlier failure"

	s = e.Advance(context.Background(), s, "hi")

	assert.Empty(t, s.Error)
}

func TestAdvanceCustomizesOnce(t *testing.T) {
	cust := &stubCustomizer{out: "Pan-fried version without an oven."}
	e := newTestEngine(&stubGenerator{reply: "Sure."}, cust)
	s := sessionWithRecipe()
	s.ServingSize = 2

	s = e.Advance(context.Background(), s, "I don't have an oven")

	sel := s.SelectedRecipe()
	require.NotNil(t, sel)
	assert.Equal(t, "Pan-fried version without an oven.", sel.Customized)
	require.Len(t, cust.calls, 1)
	assert.Equal(t, customizeCall{text: "Egg Fried Rice", request: "I don't have an oven", servings: 2}, cust.calls[0])

	cust.out = "something else"
	s = e.Advance(context.Background(), s, "I don't have an oven")

	assert.Equal(t, "Pan-fried version without an oven.", s.SelectedRecipe().Customized)
	assert.Len(t, cust.calls, 1)
	assert.Len(t, s.History, 4)
}

func TestAdvanceCustomizationUsesTranscript(t *testing.T) {
	cust := &stubCustomizer{out: "x"}
	e := newTestEngine(&stubGenerator{reply: "ok"}, cust)
	s := sessionWithRecipe()
	s.Recipes[0].Video.Transcript = "first heat the wok"

	e.Advance(context.Background(), s, "modify it")

	require.Len(t, cust.calls, 1)
	assert.Equal(t, "first heat the wok", cust.calls[0].text)
}

func TestAdvanceCustomizesSelectedRecipe(t *testing.T) {
	cust := &stubCustomizer{out: "smaller batch"}
	e := newTestEngine(&stubGenerator{reply: "ok"}, cust)
	s := sessionWithRecipe()
	s.Recipes = append(s.Recipes, domain.NewWebRecipe("Omelette", "u"))
	s.Select(1)

	e.Advance(context.Background(), s, "adjust for one person")

	assert.Empty(t, s.Recipes[0].Customized)
	assert.Equal(t, "smaller batch", s.Recipes[1].Customized)
	assert.Equal(t, 1, s.SelectedIndex)
}

func TestAdvanceNoIntentNoCustomization(t *testing.T) {
	cust := &stubCustomizer{out: "x"}
	e := newTestEngine(&stubGenerator{reply: "ok"}, cust)
	s := sessionWithRecipe()

	e.Advance(context.Background(), s, "how long does it take?")

	assert.Empty(t, cust.calls)
	assert.Nil(t, s.SelectedRecipe())
}

func TestAdvanceIntentWithoutRecipes(t *testing.T) {
	cust := &stubCustomizer{out: "x"}
	e := newTestEngine(&stubGenerator{reply: "ok"}, cust)

	s := e.Advance(context.Background(), domain.NewSession(nil, ""), "change it")

	assert.Empty(t, cust.calls)
	assert.Empty(t, s.Error)
}

func TestAdvanceCustomizerErrorIsRecorded(t *testing.T) {
	cust := &stubCustomizer{err: errors.New("quota exceeded")}
	e := newTestEngine(&stubGenerator{reply: "Sure."}, cust)
	s := sessionWithRecipe()

	s = e.Advance(context.Background(), s, "no gas here")

	assert.Contains(t, s.Error, "quota exceeded")
	assert.Empty(t, s.Recipes[0].Customized)
	assert.Equal(t, "Sure.", s.History[len(s.History)-1].Content)
	assert.Equal(t, domain.StepChatCompleted, s.CurrentStep)
}

func TestAdvanceGeneratorPanicIsRecorded(t *testing.T) {
	e := newTestEngine(nil, &stubCustomizer{})
	e.gen = panicGenerator{}

	s := e.Advance(context.Background(), domain.NewSession(nil, ""), "hi")

	assert.Contains(t, s.Error, "panic")
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string, []domain.Message) (string, error) {
	panic("nil client")
}
