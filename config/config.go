package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	TelegramToken string `yaml:"telegram_bot_token"`

	SettingsDriver    string `yaml:"settings_driver"`
	SettingsDBPath    string `yaml:"settings_db_path"`
	DatabaseURL       string `yaml:"database_url"`
	DefaultTargetLang string `yaml:"default_target_lang"`

	RateLimitMax        int           `yaml:"rate_limit_max"`
	RateLimitWindow     time.Duration `yaml:"rate_limit_window"`
	RateLimitMaxSenders int           `yaml:"rate_limit_max_senders"`
	RateLimitSilent     bool          `yaml:"rate_limit_silent"`

	CacheCapacity int `yaml:"cache_capacity"`
	CacheShards   int `yaml:"cache_shards"`

	TranslatorEngine  string        `yaml:"translator_engine"`
	TranslatorURL     string        `yaml:"translator_url"`
	TranslatorAPIKey  string        `yaml:"translator_api_key"`
	TranslatorModel   string        `yaml:"translator_model"`
	TranslatorTimeout time.Duration `yaml:"translator_timeout"`

	CommandAuth string  `yaml:"command_auth"`
	BotAdminIDs []int64 `yaml:"bot_admin_ids"`

	HTTPAddr        string   `yaml:"http_addr"`
	HTTPCORSOrigins []string `yaml:"http_cors_origins"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
}

// Default configuration before file and environment overrides
func Default() *Config {
	return &Config{
		SettingsDriver:      "sqlite",
		SettingsDBPath:      "data/settings.db",
		DefaultTargetLang:   "en",
		RateLimitMax:        1,
		RateLimitWindow:     2 * time.Second,
		RateLimitMaxSenders: 100_000,
		RateLimitSilent:     true,
		CacheCapacity:       10_000,
		CacheShards:         16,
		TranslatorEngine:    "google",
		TranslatorTimeout:   10 * time.Second,
		CommandAuth:         "chat_admins",
		HTTPAddr:            ":9090",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads .env, the optional CONFIG_FILE yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.loadEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.SettingsDriver, "SETTINGS_DRIVER")
	setString(&c.SettingsDBPath, "SETTINGS_DB_PATH")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DefaultTargetLang, "DEFAULT_TARGET_LANG")
	setString(&c.TranslatorEngine, "TRANSLATOR_ENGINE")
	setString(&c.TranslatorURL, "TRANSLATOR_URL")
	setString(&c.TranslatorAPIKey, "TRANSLATOR_API_KEY")
	setString(&c.TranslatorModel, "TRANSLATOR_MODEL")
	setString(&c.CommandAuth, "COMMAND_AUTH")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	// GEMINI_API_KEY kept for existing deployments
	if c.TranslatorAPIKey == "" {
		setString(&c.TranslatorAPIKey, "GEMINI_API_KEY")
	}

	var errs []error
	errs = append(errs,
		setInt(&c.RateLimitMax, "RATE_LIMIT_MAX"),
		setDuration(&c.RateLimitWindow, "RATE_LIMIT_WINDOW"),
		setInt(&c.RateLimitMaxSenders, "RATE_LIMIT_MAX_SENDERS"),
		setBool(&c.RateLimitSilent, "RATE_LIMIT_SILENT"),
		setInt(&c.CacheCapacity, "CACHE_CAPACITY"),
		setInt(&c.CacheShards, "CACHE_SHARDS"),
		setDuration(&c.TranslatorTimeout, "TRANSLATOR_TIMEOUT"),
	)

	if raw := os.Getenv("HTTP_CORS_ORIGINS"); raw != "" {
		c.HTTPCORSOrigins = splitList(raw)
	}

	if raw := os.Getenv("BOT_ADMIN_IDS"); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("BOT_ADMIN_IDS: %w", err))
		} else {
			c.BotAdminIDs = ids
		}
	}

	return errors.Join(errs...)
}

// Validate checks ranges and required values
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is empty"))
	}

	switch c.SettingsDriver {
	case "sqlite":
		if c.SettingsDBPath == "" {
			errs = append(errs, errors.New("SETTINGS_DB_PATH is empty"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("SETTINGS_DRIVER %q is not one of sqlite, postgres, memory", c.SettingsDriver))
	}

	if c.RateLimitMax < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be at least 1, got %d", c.RateLimitMax))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.RateLimitMaxSenders < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX_SENDERS must be at least 1, got %d", c.RateLimitMaxSenders))
	}
	if c.CacheCapacity < 1 {
		errs = append(errs, fmt.Errorf("CACHE_CAPACITY must be at least 1, got %d", c.CacheCapacity))
	}
	if c.CacheShards < 1 {
		errs = append(errs, fmt.Errorf("CACHE_SHARDS must be at least 1, got %d", c.CacheShards))
	}
	if c.TranslatorTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TRANSLATOR_TIMEOUT must be positive, got %s", c.TranslatorTimeout))
	}

	switch c.CommandAuth {
	case "anyone", "chat_admins", "bot_admins":
	default:
		errs = append(errs, fmt.Errorf("COMMAND_AUTH %q is not one of anyone, chat_admins, bot_admins", c.CommandAuth))
	}
	if c.CommandAuth == "bot_admins" && len(c.BotAdminIDs) == 0 {
		errs = append(errs, errors.New("COMMAND_AUTH=bot_admins needs at least one BOT_ADMIN_IDS entry"))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of text, json", c.LogFormat))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s is not an integer: %q", key, v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s is not a boolean: %q", key, v)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s is not a duration: %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
