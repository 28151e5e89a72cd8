package translator

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// DefaultLibreTranslateURL local LibreTranslate server
const DefaultLibreTranslateURL = "http://localhost:5000"

var libreCodes = map[string]string{
	"zh-cn": "zh",
	"zh-tw": "zt",
	"no":    "nb",
}

// LibreTranslateClient translates through a self-hosted LibreTranslate server.
type LibreTranslateClient struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	logger  *logrus.Logger
}

// NewLibreTranslateClient creates a LibreTranslateClient. apiKey may be empty.
func NewLibreTranslateClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &LibreTranslateClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    resty.New().SetTimeout(timeout),
		logger:  logger,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreError struct {
	Error string `json:"error"`
}

func (c *LibreTranslateClient) Name() string { return string(EngineLibreTranslate) }

func libreCode(code string) string {
	if l, ok := libreCodes[code]; ok {
		return l
	}
	return code
}

func (c *LibreTranslateClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := "auto"
	if sourceLang != "" && sourceLang != entity.UnknownLanguage {
		source = libreCode(sourceLang)
	}

	var result libreResponse
	var apiErr libreError
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(libreRequest{
			Q:      text,
			Source: source,
			Target: libreCode(targetLang),
			Format: "text",
			APIKey: c.apiKey,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.baseURL + "/translate")
	if err != nil {
		c.logger.WithError(err).Error("LibreTranslate request failed")
		return "", transportError(c.Name(), err)
	}
	if resp.IsError() {
		body := apiErr.Error
		if body == "" {
			body = resp.String()
		}
		return "", statusError(c.Name(), resp.StatusCode(), body)
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": targetLang,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Translation completed")
	return result.TranslatedText, nil
}

// CheckHealth lists languages as a readiness probe
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get(c.baseURL + "/languages")
	if err != nil {
		return transportError(c.Name(), err)
	}
	if resp.IsError() {
		return statusError(c.Name(), resp.StatusCode(), resp.String())
	}
	return nil
}
