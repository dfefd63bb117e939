package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/genai"

	"github.com/vbonduro/whatthefridge/internal/config"
	"github.com/vbonduro/whatthefridge/internal/conversation"
	"github.com/vbonduro/whatthefridge/internal/db"
	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/llm"
	claudellm "github.com/vbonduro/whatthefridge/internal/llm/claude"
	geminillm "github.com/vbonduro/whatthefridge/internal/llm/gemini"
	ollamallm "github.com/vbonduro/whatthefridge/internal/llm/ollama"
	openaillm "github.com/vbonduro/whatthefridge/internal/llm/openai"
	"github.com/vbonduro/whatthefridge/internal/logging"
	"github.com/vbonduro/whatthefridge/internal/metrics"
	"github.com/vbonduro/whatthefridge/internal/pipeline"
	"github.com/vbonduro/whatthefridge/internal/service"
	"github.com/vbonduro/whatthefridge/internal/session"
	"github.com/vbonduro/whatthefridge/internal/source"
	"github.com/vbonduro/whatthefridge/internal/source/video"
	"github.com/vbonduro/whatthefridge/internal/source/web"
	"github.com/vbonduro/whatthefridge/internal/store"
	"github.com/vbonduro/whatthefridge/internal/vision"
	claudevision "github.com/vbonduro/whatthefridge/internal/vision/claude"
	geminivision "github.com/vbonduro/whatthefridge/internal/vision/gemini"
	ollamavision "github.com/vbonduro/whatthefridge/internal/vision/ollama"
	httpapi "github.com/vbonduro/whatthefridge/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	var genaiClient *genai.Client
	if cfg.LLMBackend == "gemini" || cfg.VisionBackend == "gemini" {
		if cfg.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini backend")
		}
		genaiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
	}

	generator, err := newGenerator(cfg, genaiClient, logger)
	if err != nil {
		return err
	}
	recognizer, err := newRecognizer(cfg, genaiClient, logger)
	if err != nil {
		return err
	}

	var transcripts source.TranscriptFetcher = video.NewTranscriptClient(video.DefaultBaseURL, cfg.UserAgent, cfg.TranscriptLanguages, logger)
	var pages source.PageExtractor = web.NewExtractor(cfg.UserAgent, logger)

	if cfg.CacheDBPath != "" {
		database, err := db.Open(cfg.CacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		defer closeDB(database, logger)

		cache := store.NewCacheStore(database)
		transcripts = source.NewCachedTranscripts(transcripts, cache, logger)
		pages = source.NewCachedPages(pages, cache, logger)
		logger.Info("enrichment cache enabled", "path", cfg.CacheDBPath)
	}

	providers := []pipeline.Provider{
		{
			Source:   domain.SourceVideo,
			Searcher: video.NewSearcher(video.DefaultBaseURL, cfg.UserAgent, logger),
			Enricher: video.NewEnricher(transcripts),
			Limit:    cfg.VideoResults,
		},
		{
			Source:   domain.SourceWeb,
			Searcher: web.NewSearcher(web.DefaultSearchURL, cfg.UserAgent, logger),
			Enricher: web.NewEnricher(pages),
			Limit:    cfg.WebResults,
		},
	}
	orchestrator := pipeline.NewOrchestrator(recognizer, providers, pipeline.Options{
		SourceTimeout:     cfg.SourceTimeout,
		EnrichTimeout:     cfg.EnrichTimeout,
		EnrichConcurrency: cfg.EnrichConcurrency,
	}, m, logger)
	engine := conversation.NewEngine(generator, llm.NewCustomizer(generator), cfg.LLMTimeout, m, logger)

	svc := service.NewAssistantService(orchestrator, engine, session.NewMemoryStore(logger), transcripts, logger)
	srv := httpapi.NewServer(svc, cfg.CORSOrigins, logger).HTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr, "llm_backend", cfg.LLMBackend, "vision_backend", cfg.VisionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newGenerator(cfg *config.Config, client *genai.Client, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.LLMBackend {
	case "gemini":
		logger.Info("using Gemini text backend", "model", cfg.GeminiModel)
		return geminillm.NewGeminiGenerator(client, cfg.GeminiModel, logger), nil
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, errors.New("CLAUDE_API_KEY is required when LLM_BACKEND=claude")
		}
		logger.Info("using Claude text backend", "model", cfg.ClaudeModel)
		return claudellm.NewClaudeGenerator(cfg.ClaudeAPIKey, cfg.ClaudeModel, logger), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required when LLM_BACKEND=openai")
		}
		logger.Info("using OpenAI text backend", "model", cfg.OpenAIModel)
		return openaillm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), nil
	case "ollama":
		logger.Info("using Ollama text backend", "model", cfg.OllamaModel)
		return ollamallm.NewOllamaGenerator(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", cfg.LLMBackend)
	}
}

func newRecognizer(cfg *config.Config, client *genai.Client, logger *slog.Logger) (vision.Recognizer, error) {
	switch cfg.VisionBackend {
	case "gemini":
		logger.Info("using Gemini vision backend", "model", cfg.GeminiModel)
		return geminivision.NewGeminiRecognizer(client, cfg.GeminiModel), nil
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, errors.New("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeRecognizer(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaVisionModel)
		return ollamavision.NewOllamaRecognizer(cfg.OllamaHost, cfg.OllamaVisionModel), nil
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}
}

func closeDB(database *sql.DB, logger *slog.Logger) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
