package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"

	geminiConcurrency = 3
	geminiMinInterval = 350 * time.Millisecond
)

// GeminiClient prompts a Gemini model to translate. Calls are throttled to a
// few in flight with a minimum spacing between starts.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	sem    chan struct{}
	mu     sync.Mutex
	last   time.Time
	delay  time.Duration
	logger *logrus.Logger
}

// NewGeminiClient creates a GeminiClient
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *logrus.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: TRANSLATOR_API_KEY is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if logger == nil {
		logger = logrus.New()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(2048)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &GeminiClient{
		client: client,
		model:  model,
		sem:    make(chan struct{}, geminiConcurrency),
		delay:  geminiMinInterval,
		logger: logger,
	}, nil
}

func (g *GeminiClient) Name() string { return string(EngineGemini) }

func (g *GeminiClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	release, err := g.acquire(ctx)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	defer release()

	resp, err := g.model.GenerateContent(ctx, genai.Text(userPrompt(text, sourceLang, targetLang)))
	if err != nil {
		return "", geminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", entity.ErrProviderUnsupported)
	}

	return strings.TrimSpace(extractText(resp)), nil
}

func geminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: gemini: %v", entity.ErrProviderUnsupported, err)
	}
	if ae, ok := apierror.FromError(err); ok {
		if code := ae.HTTPCode(); code > 0 {
			return statusError("gemini", code, ae.Reason())
		}
		if st := ae.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.DeadlineExceeded:
				return fmt.Errorf("%w: gemini: %v", entity.ErrProviderTimeout, err)
			case codes.InvalidArgument, codes.FailedPrecondition:
				return fmt.Errorf("%w: gemini: %v", entity.ErrProviderUnsupported, err)
			}
		}
	}
	return transportError("gemini", err)
}

// extractText concatenates the text parts of every candidate
func extractText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				result.WriteString(string(t))
			}
		}
	}
	return result.String()
}

// acquire waits for a free slot and the minimum spacing since the last call
func (g *GeminiClient) acquire(ctx context.Context) (func(), error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if !g.last.IsZero() {
		if wait := g.delay - now.Sub(g.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				<-g.sem
				return nil, ctx.Err()
			}
			now = time.Now()
		}
	}
	g.last = now

	return func() { <-g.sem }, nil
}

// Close closes the underlying client
func (g *GeminiClient) Close() error {
	return g.client.Close()
}
