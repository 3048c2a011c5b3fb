package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chatbot-studio/internal/config"
	"chatbot-studio/internal/domain/ports/adapter"
	aiAdapters "chatbot-studio/internal/infra/adapters/ai"
	pg "chatbot-studio/internal/infra/db/postgres"
	"chatbot-studio/internal/infra/extract"
	"chatbot-studio/internal/infra/logging"
	"chatbot-studio/internal/infra/metrics"
	red "chatbot-studio/internal/infra/redis"
	"chatbot-studio/internal/infra/web"
	"chatbot-studio/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (no auth, noop AI fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres schema")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer redisClient.Close()
	botCache := red.NewBotCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	botRepo := pg.NewPostgresChatbotRepo(pool, botCache)
	sessionRepo := pg.NewPostgresGeneralSessionRepo(pool)
	prefsRepo := red.NewPreferencesRepo(redisClient)

	// ---- AI adapter (Gemini -> OpenAI -> noop in dev) ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Gemini")
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("AI adapter: noop (dev mode, no provider key configured)")
	default:
		logger.Fatal().Msgf("no AI provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
	}

	// ---- Use cases ----
	convUC := usecase.NewConversationUseCase(botRepo, ai, cfg.AI.DefaultModel, logger)
	botUC := usecase.NewChatbotUseCase(botRepo, convUC, logger)
	assistantUC := usecase.NewAssistantUseCase(sessionRepo, ai, cfg.AI.DefaultModel, logger)
	shareUC := usecase.NewShareUseCase(botRepo, logger)
	extractor := extract.NewService(ai, logger)

	// Warm the assistant registry so the UI always finds a session.
	if _, err := assistantUC.Bootstrap(ctx); err != nil {
		logger.Error().Err(err).Msg("assistant bootstrap")
	}

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, !cfg.Runtime.Dev, cfg.Server.SessionTTL)
	srv := web.NewServer(botUC, convUC, assistantUC, shareUC, extractor, prefsRepo, ai, auth, web.ServerOptions{
		APIKey:    cfg.Server.APIKey,
		GeminiKey: cfg.AI.GeminiKey,
		ModelName: cfg.AI.DefaultModel,
		DevMode:   cfg.Runtime.Dev,
	}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
