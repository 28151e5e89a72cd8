package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient translates with an OpenAI-compatible chat completion API.
// BaseURL may point at OpenRouter or a local server.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

// NewOpenAIClient creates an OpenAIClient
func NewOpenAIClient(baseURL, apiKey, model string, logger *logrus.Logger) (*OpenAIClient, error) {
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("openai: TRANSLATOR_API_KEY is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = logrus.New()
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

func (c *OpenAIClient) Name() string { return string(EngineOpenAI) }

func (c *OpenAIClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(text, sourceLang, targetLang),
			},
		},
		Temperature: 0,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(c.Name(), apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", statusError(c.Name(), reqErr.HTTPStatusCode, reqErr.Error())
		}
		return "", transportError(c.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", entity.ErrProviderUnsupported)
	}

	c.logger.WithFields(logrus.Fields{
		"model":             c.model,
		"target_lang":       targetLang,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("Translation completed")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
