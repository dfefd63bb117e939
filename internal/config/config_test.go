package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.LLMBackend)
	assert.NotEmpty(t, cfg.VisionBackend)
	assert.Equal(t, 3, cfg.VideoResults)
	assert.Equal(t, 2, cfg.WebResults)
	assert.Equal(t, []string{"en"}, cfg.TranscriptLanguages)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("LLM_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("VIDEO_RESULTS", "5")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("TRANSCRIPT_LANGUAGES", "en, fr ,,es")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "claude", cfg.LLMBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 5, cfg.VideoResults)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, []string{"en", "fr", "es"}, cfg.TranscriptLanguages)
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WEB_RESULTS", "lots")
	t.Setenv("ENRICH_TIMEOUT", "-5s")

	cfg := Load()

	assert.Equal(t, 2, cfg.WebResults)
	assert.Equal(t, 20*time.Second, cfg.EnrichTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OLLAMA_MODEL=from-dotenv\n"), 0600))
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("OLLAMA_MODEL") })

	cfg := Load()

	assert.Equal(t, "from-dotenv", cfg.OllamaModel)
}
