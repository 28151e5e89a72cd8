package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/translate-relay-bot/config"
	"github.com/yourusername/translate-relay-bot/internal/delivery/http"
	"github.com/yourusername/translate-relay-bot/internal/delivery/telegram"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/cache"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/detector"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/metrics"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/ratelimit"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/sheet"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/storage"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/translator"
	"github.com/yourusername/translate-relay-bot/internal/usecase"
)

const (
	auditLogSize    = 500
	metricsInterval = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := newLogger(cfg)
	logger.WithFields(logrus.Fields{
		"settings_driver": cfg.SettingsDriver,
		"engine":          cfg.TranslatorEngine,
		"default_lang":    cfg.DefaultTargetLang,
		"rate_limit":      fmt.Sprintf("%d/%s", cfg.RateLimitMax, cfg.RateLimitWindow),
		"cache_capacity":  cfg.CacheCapacity,
		"command_auth":    cfg.CommandAuth,
	}).Info("Starting translation relay bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Bot stopped with error")
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	settingsRepo, err := newSettingsRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("settings storage: %w", err)
	}
	defer settingsRepo.Close()

	settings, err := usecase.NewSettingsUseCase(settingsRepo, cfg.DefaultTargetLang, logger)
	if err != nil {
		return err
	}

	translationCache := cache.New(cfg.CacheCapacity, cache.WithShards(cfg.CacheShards))
	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow, ratelimit.WithMaxSenders(cfg.RateLimitMaxSenders))
	go limiter.Run(ctx, cfg.RateLimitWindow)

	engine, err := translator.ParseEngineType(cfg.TranslatorEngine)
	if err != nil {
		return err
	}
	provider, err := translator.NewProvider(ctx, translator.Config{
		Engine:  engine,
		BaseURL: cfg.TranslatorURL,
		APIKey:  cfg.TranslatorAPIKey,
		Model:   cfg.TranslatorModel,
		Timeout: cfg.TranslatorTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	checkProviderHealth(ctx, provider, logger)

	collector := metrics.NewCollector(translationCache, limiter)
	go collectMetrics(ctx, collector)

	dispatch := usecase.NewDispatchUseCase(
		settings,
		limiter,
		translationCache,
		detector.NewLingua(detector.WithPreloadedModels()),
		provider,
		metrics.NewRecorder(string(engine)),
		usecase.DispatchConfig{
			ProviderTimeout: cfg.TranslatorTimeout,
			RateLimitSilent: cfg.RateLimitSilent,
		},
		logger,
	)

	policy, _ := entity.ParseAuthPolicy(cfg.CommandAuth)
	admin := usecase.NewAdminUseCase(
		settings,
		storage.NewMemoryAdminRepository(auditLogSize),
		sheet.NewExcelSettingsSheet(logger),
		policy,
		cfg.BotAdminIDs,
		func() entity.RuntimeStats {
			return entity.RuntimeStats{
				Engine:    string(engine),
				Cache:     translationCache.Stats(),
				RateLimit: limiter.Stats(),
			}
		},
		logger,
	)

	if cfg.HTTPAddr != "" {
		server := http.NewServer(admin, settingsRepo, cfg.HTTPCORSOrigins, logger)
		go func() {
			if err := server.Run(ctx, cfg.HTTPAddr); err != nil {
				logger.WithError(err).Error("Ops server stopped")
			}
		}()
	}

	bot, err := telegram.NewBotHandler(cfg.TelegramToken, dispatch, admin, settings, logger)
	if err != nil {
		return err
	}
	return bot.Start(ctx)
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func newSettingsRepository(ctx context.Context, cfg *config.Config) (repository.SettingsRepository, error) {
	switch cfg.SettingsDriver {
	case "postgres":
		return storage.NewPostgresSettingsRepository(ctx, cfg.DatabaseURL)
	case "memory":
		return storage.NewMemorySettingsRepository(), nil
	default:
		return storage.NewSQLiteSettingsRepository(cfg.SettingsDBPath)
	}
}

// checkProviderHealth logs whether a self-hosted engine answers. Startup continues either way.
func checkProviderHealth(ctx context.Context, provider repository.TranslationProvider, logger *logrus.Logger) {
	checker, ok := provider.(interface{ CheckHealth(context.Context) error })
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := checker.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, translations may fail until it is ready")
		return
	}
	logger.Info("Translator health check passed")
}

func collectMetrics(ctx context.Context, collector *metrics.Collector) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	collector.UpdateMetrics()
	for {
		select {
		case <-ticker.C:
			collector.UpdateMetrics()
		case <-ctx.Done():
			return
		}
	}
}
