package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string
	LogFile     string

	LLMBackend    string
	VisionBackend string

	GeminiAPIKey      string
	GeminiModel       string
	ClaudeAPIKey      string
	ClaudeModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OllamaHost        string
	OllamaModel       string
	OllamaVisionModel string

	VideoResults        int
	WebResults          int
	SourceTimeout       time.Duration
	EnrichTimeout       time.Duration
	LLMTimeout          time.Duration
	EnrichConcurrency   int
	TranscriptLanguages []string
	UserAgent           string

	CacheDBPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8000"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogFile:     getEnv("LOG_FILE", ""),

		LLMBackend:    getEnv("LLM_BACKEND", "gemini"),
		VisionBackend: getEnv("VISION_BACKEND", "gemini"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.2"),
		OllamaVisionModel: getEnv("OLLAMA_VISION_MODEL", "moondream"),

		VideoResults:        getEnvInt("VIDEO_RESULTS", 3),
		WebResults:          getEnvInt("WEB_RESULTS", 2),
		SourceTimeout:       getEnvDuration("SOURCE_TIMEOUT", 10*time.Second),
		EnrichTimeout:       getEnvDuration("ENRICH_TIMEOUT", 20*time.Second),
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		EnrichConcurrency:   getEnvInt("ENRICH_CONCURRENCY", 4),
		TranscriptLanguages: splitList(getEnv("TRANSCRIPT_LANGUAGES", "en")),
		UserAgent:           getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),

		CacheDBPath: getEnv("CACHE_DB_PATH", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
