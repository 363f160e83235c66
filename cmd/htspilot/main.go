package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/teuglobal/htspilot/internal/cache"
	"github.com/teuglobal/htspilot/internal/completion"
	anthropicbackend "github.com/teuglobal/htspilot/internal/completion/anthropic"
	gatewaybackend "github.com/teuglobal/htspilot/internal/completion/gateway"
	"github.com/teuglobal/htspilot/internal/config"
	"github.com/teuglobal/htspilot/internal/db"
	"github.com/teuglobal/htspilot/internal/logging"
	"github.com/teuglobal/htspilot/internal/prompt"
	"github.com/teuglobal/htspilot/internal/service"
	"github.com/teuglobal/htspilot/internal/store"
	"github.com/teuglobal/htspilot/internal/tariffdata"
	"github.com/teuglobal/htspilot/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	settings := store.NewSettingsStore(database)
	denylist := store.NewDenylistStore(database, prompt.BaseExpiredCodes)
	history := store.NewHistoryStore(database)

	streamer := newCompletionBackend(cfg, logger)
	if streamer == nil {
		return
	}

	redisClient, err := cache.Config{URL: cfg.RedisURL}.New(context.Background())
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()
		logger.Info("tariff cache enabled", "ttl", cfg.TariffCacheTTL)
	}

	tariff := tariffdata.NewClient(
		cfg.DatawebURL, cfg.HtsSearchURL, cfg.DatawebToken,
		streamer, redisClient, cfg.TariffCacheTTL, logger,
	)

	querySvc := service.NewQueryService(streamer, denylist, settings, history, logger)
	server := web.NewServer(querySvc, settings, denylist, history, tariff, cfg.HistoryLimit, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newCompletionBackend(cfg *config.Config, logger *slog.Logger) completion.Streamer {
	switch cfg.CompletionBackend {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logger.Error("ANTHROPIC_API_KEY is required when COMPLETION_BACKEND=anthropic")
			return nil
		}
		logger.Info("using anthropic completion backend", "model", cfg.AnthropicModel)
		return anthropicbackend.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		logger.Info("using gateway completion backend", "url", cfg.GatewayURL, "model", cfg.GatewayModel)
		return gatewaybackend.NewClient(cfg.GatewayURL, cfg.GatewayModel)
	}
}
