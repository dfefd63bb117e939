package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/whatthefridge/internal/conversation"
	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/llm"
	"github.com/vbonduro/whatthefridge/internal/pipeline"
	"github.com/vbonduro/whatthefridge/internal/service"
	"github.com/vbonduro/whatthefridge/internal/session"
	"github.com/vbonduro/whatthefridge/internal/source"
	"github.com/vbonduro/whatthefridge/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingRecognizer captures the image bytes passed to it.
type recordingRecognizer struct {
	mu          sync.Mutex
	lastBytes   []byte
	lastMIME    string
	ingredients []string
}

func (r *recordingRecognizer) Recognize(_ context.Context, image []byte, mimeType string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastBytes = image
	r.lastMIME = mimeType
	return r.ingredients, nil
}

type fixedSearcher struct {
	recipes []*domain.Recipe
}

func (f *fixedSearcher) Search(context.Context, string, int) ([]*domain.Recipe, error) {
	out := make([]*domain.Recipe, 0, len(f.recipes))
	for _, r := range f.recipes {
		out = append(out, r.Clone())
	}
	return out, nil
}

type fakeTranscripts struct {
	byID map[string]string
}

func (f *fakeTranscripts) Transcript(_ context.Context, id string) (string, error) {
	t, ok := f.byID[id]
	if !ok {
		return "", source.ErrNoContent
	}
	return t, nil
}

// echoGenerator answers chat prompts with a fixed reply and customization
// prompts with a rewrite marker.
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, prompt string, _ []domain.Message) (string, error) {
	if strings.HasPrefix(prompt, "Modify this recipe") {
		return "Stovetop version", nil
	}
	return "Here is an idea.", nil
}

type pageEnricher struct{}

func (pageEnricher) Enrich(_ context.Context, r *domain.Recipe) (domain.Patch, error) {
	return domain.Patch{Steps: []string{"Whisk the eggs for " + r.Title}}, nil
}

type testEnv struct {
	srv        *httptest.Server
	recognizer *recordingRecognizer
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	transcripts := &fakeTranscripts{byID: map[string]string{"vid1": "First heat the pan. Then add the egg and mix well."}}
	rec := &recordingRecognizer{ingredients: []string{"tomato"}}
	providers := []pipeline.Provider{
		{
			Source:   domain.SourceVideo,
			Searcher: &fixedSearcher{recipes: []*domain.Recipe{domain.NewVideoRecipe("vid1", "Egg Fried Rice", "https://www.youtube.com/watch?v=vid1", "")}},
			Enricher: videoEnricherFor(transcripts),
			Limit:    3,
		},
		{
			Source:   domain.SourceWeb,
			Searcher: &fixedSearcher{recipes: []*domain.Recipe{domain.NewWebRecipe("Omelette", "https://example.test/omelette")}},
			Enricher: pageEnricher{},
			Limit:    2,
		},
	}
	orch := pipeline.NewOrchestrator(rec, providers, pipeline.Options{EnrichConcurrency: 2}, nil, discardLogger)
	engine := conversation.NewEngine(echoGenerator{}, llm.NewCustomizer(echoGenerator{}), 0, nil, discardLogger)
	svc := service.NewAssistantService(orch, engine, session.NewMemoryStore(discardLogger), transcripts, discardLogger)

	srv := httptest.NewServer(web.NewServer(svc, nil, discardLogger))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, recognizer: rec}
}

// videoEnricherFor attaches the transcript only; step derivation is covered
// by the video package.
func videoEnricherFor(tr *fakeTranscripts) source.Enricher {
	return enrichFunc(func(ctx context.Context, r *domain.Recipe) (domain.Patch, error) {
		text, err := tr.Transcript(ctx, r.VideoID())
		if err != nil {
			return domain.Patch{}, err
		}
		return domain.Patch{Transcript: &text}, nil
	})
}

type enrichFunc func(ctx context.Context, r *domain.Recipe) (domain.Patch, error)

func (f enrichFunc) Enrich(ctx context.Context, r *domain.Recipe) (domain.Patch, error) {
	return f(ctx, r)
}

type recipeJSON struct {
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	URL        string   `json:"url"`
	VideoID    string   `json:"video_id"`
	Transcript string   `json:"transcript"`
	Steps      []string `json:"steps"`
}

type ingredientsJSON struct {
	Recipes        []recipeJSON `json:"recipes"`
	ConversationID string       `json:"conversation_id"`
}

type chatJSON struct {
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	UpdatedRecipes []recipeJSON `json:"updated_recipes"`
}

func submitIngredients(t *testing.T, env *testEnv, ingredients ...string) ingredientsJSON {
	t.Helper()
	resp, err := http.PostForm(env.srv.URL+"/api/ingredients", url.Values{"ingredients": ingredients, "craving": {"breakfast"}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out ingredientsJSON
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func postChat(t *testing.T, env *testEnv, payload map[string]any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(env.srv.URL+"/api/chat", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestIntegration_Root(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, err := http.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "WhatTheFridge API is running")
}

func TestIntegration_SubmitIngredients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	out := submitIngredients(t, env, "egg", " ", "rice")

	assert.NotEmpty(t, out.ConversationID)
	require.Len(t, out.Recipes, 2)
	assert.Equal(t, "video", out.Recipes[0].Source)
	assert.Equal(t, "vid1", out.Recipes[0].VideoID)
	assert.Contains(t, out.Recipes[0].Transcript, "heat the pan")
	assert.Equal(t, "web", out.Recipes[1].Source)
	assert.Equal(t, []string{"Whisk the eggs for Omelette"}, out.Recipes[1].Steps)
}

func TestIntegration_SubmitIngredientsRequiresInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, err := http.PostForm(env.srv.URL+"/api/ingredients", url.Values{"ingredients": {" "}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func buildMultipartBody(t *testing.T, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("craving", "salad"))
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntegration_SubmitImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	resp, err := http.Post(env.srv.URL+"/api/ingredients", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))

	env.recognizer.mu.Lock()
	defer env.recognizer.mu.Unlock()
	assert.Len(t, env.recognizer.lastBytes, len(minimalJPEG))
	assert.Equal(t, "image/jpeg", env.recognizer.lastMIME)
}

func TestIntegration_SubmitUnsupportedImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	body, contentType := buildMultipartBody(t, []byte("%PDF-1.4 not an image"))
	resp, err := http.Post(env.srv.URL+"/api/ingredients", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_ChatAndCustomize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	sub := submitIngredients(t, env, "egg", "rice")

	resp := postChat(t, env, map[string]any{"message": "What should I cook?", "conversation_id": sub.ConversationID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var plain chatJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plain))
	assert.Equal(t, "Here is an idea.", plain.Response)
	assert.Empty(t, plain.UpdatedRecipes)

	resp = postChat(t, env, map[string]any{
		"message":         "I don't have an oven",
		"conversation_id": sub.ConversationID,
		"serving_size":    2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var custom chatJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&custom))
	require.Len(t, custom.UpdatedRecipes, 1)
	assert.Equal(t, "customized", custom.UpdatedRecipes[0].Source)
	assert.Equal(t, "Egg Fried Rice", custom.UpdatedRecipes[0].Title)
	assert.Equal(t, []string{"Stovetop version"}, custom.UpdatedRecipes[0].Steps)
}

func TestIntegration_ChatErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	sub := submitIngredients(t, env, "egg")

	tests := []struct {
		name    string
		payload map[string]any
		want    int
	}{
		{"unknown conversation", map[string]any{"message": "hi", "conversation_id": "nope"}, http.StatusNotFound},
		{"missing conversation", map[string]any{"message": "hi"}, http.StatusNotFound},
		{"empty message", map[string]any{"message": " ", "conversation_id": sub.ConversationID}, http.StatusBadRequest},
		{"negative servings", map[string]any{"message": "hi", "conversation_id": sub.ConversationID, "serving_size": -1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postChat(t, env, tt.payload)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestIntegration_Recipes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	sub := submitIngredients(t, env, "egg")

	resp, err := http.Get(env.srv.URL + "/api/recipes?conversation_id=" + sub.ConversationID)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Recipes []recipeJSON `json:"recipes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Recipes, 2)

	missing, err := http.Get(env.srv.URL + "/api/recipes?conversation_id=nope")
	require.NoError(t, err)
	defer func() { _ = missing.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestIntegration_Transcript(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, err := http.Get(env.srv.URL + "/api/transcribe/vid1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "vid1", out["video_id"])
	assert.Contains(t, out["transcript"], "heat the pan")

	missing, err := http.Get(env.srv.URL + "/api/transcribe/unknown")
	require.NoError(t, err)
	defer func() { _ = missing.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
