package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens    = 2048
)

// AnthropicClient translates with the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
	model  string
	logger *logrus.Logger
}

// NewAnthropicClient creates an AnthropicClient. The SDK's own retries are
// disabled; a failed call surfaces to the caller at once.
func NewAnthropicClient(baseURL, apiKey, model string, logger *logrus.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: TRANSLATOR_API_KEY is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if logger == nil {
		logger = logrus.New()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
		logger: logger,
	}, nil
}

func (c *AnthropicClient) Name() string { return string(EngineAnthropic) }

func (c *AnthropicClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(text, sourceLang, targetLang))),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(c.Name(), apiErr.StatusCode, apiErr.Error())
		}
		return "", transportError(c.Name(), err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text (stop reason %s)", entity.ErrProviderUnsupported, resp.StopReason)
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"target_lang":   targetLang,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("Translation completed")

	return strings.TrimSpace(out.String()), nil
}
