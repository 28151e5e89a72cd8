// Package translator adapts external machine translation services to the
// TranslationProvider contract.
package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

// EngineType translation backend
type EngineType string

const (
	// EngineGoogle public Google Translate web endpoint, no key required
	EngineGoogle EngineType = "google"
	// EngineLibreTranslate self-hosted LibreTranslate server
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineGemini Google Gemini prompted as a translator
	EngineGemini EngineType = "gemini"
	// EngineOpenAI any OpenAI-compatible chat completion API
	EngineOpenAI EngineType = "openai"
	// EngineAnthropic Anthropic Messages API
	EngineAnthropic EngineType = "anthropic"
)

// DefaultTimeout per-request HTTP timeout when none is configured
const DefaultTimeout = 15 * time.Second

// Config settings for creating a provider
type Config struct {
	Engine EngineType
	// BaseURL overrides the engine's default endpoint
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *logrus.Logger
}

// ParseEngineType parses a configured engine name
func ParseEngineType(s string) (EngineType, error) {
	switch e := EngineType(strings.ToLower(strings.TrimSpace(s))); e {
	case EngineGoogle, EngineLibreTranslate, EngineGemini, EngineOpenAI, EngineAnthropic:
		return e, nil
	default:
		return "", fmt.Errorf("unknown translation engine: %s (supported: google, libretranslate, gemini, openai, anthropic)", s)
	}
}

// NewProvider builds the provider selected by cfg.Engine
func NewProvider(ctx context.Context, cfg Config) (repository.TranslationProvider, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Info("Creating translation provider")

	var (
		provider repository.TranslationProvider
		err      error
	)
	switch cfg.Engine {
	case EngineGoogle:
		provider = NewGoogleClient(cfg.BaseURL, cfg.Timeout, cfg.Logger)
	case EngineLibreTranslate:
		provider = NewLibreTranslateClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.Logger)
	case EngineGemini:
		provider, err = NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Logger)
	case EngineOpenAI:
		provider, err = NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Logger)
	case EngineAnthropic:
		provider, err = NewAnthropicClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Logger)
	default:
		err = fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
	if err != nil {
		cfg.Logger.WithError(err).WithField("engine", cfg.Engine).Error("Failed to create translation provider")
		return nil, err
	}
	return provider, nil
}
