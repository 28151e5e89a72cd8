package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// DefaultGoogleURL public web translation endpoint
const DefaultGoogleURL = "https://translate.googleapis.com"

// googleCodes codes that differ from the supported-language table
var googleCodes = map[string]string{
	"zh-cn": "zh-CN",
	"zh-tw": "zh-TW",
	"he":    "iw",
}

// GoogleClient translates through the keyless translate_a/single endpoint.
type GoogleClient struct {
	baseURL string
	http    *resty.Client
	logger  *logrus.Logger
}

// NewGoogleClient creates a GoogleClient
func NewGoogleClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *GoogleClient {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &GoogleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    resty.New().SetTimeout(timeout),
		logger:  logger,
	}
}

func (c *GoogleClient) Name() string { return string(EngineGoogle) }

func googleCode(code string) string {
	if g, ok := googleCodes[code]; ok {
		return g
	}
	return code
}

func (c *GoogleClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := "auto"
	if sourceLang != "" && sourceLang != entity.UnknownLanguage {
		source = googleCode(sourceLang)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     source,
			"tl":     googleCode(targetLang),
			"dt":     "t",
			"q":      text,
		}).
		Get(c.baseURL + "/translate_a/single")
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	if resp.IsError() {
		return "", statusError(c.Name(), resp.StatusCode(), resp.String())
	}

	out, err := parseGoogleResponse(resp.Body())
	if err != nil {
		return "", fmt.Errorf("%w: google: %v", entity.ErrProviderUnavailable, err)
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translation completed")
	return out, nil
}

// parseGoogleResponse joins the translated segments of
// [[["hola","hello",...], ...], null, "en", ...].
func parseGoogleResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(root) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	return b.String(), nil
}
