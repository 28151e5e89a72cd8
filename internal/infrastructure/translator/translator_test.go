package translator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseEngineType(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"google", "LibreTranslate", " gemini ", "OPENAI", "anthropic"} {
		if _, err := ParseEngineType(in); err != nil {
			t.Errorf("ParseEngineType(%q) failed: %v", in, err)
		}
	}
	if _, err := ParseEngineType("argos"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestNewProvider_RequiresKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, engine := range []EngineType{EngineGemini, EngineAnthropic, EngineOpenAI} {
		if p, err := NewProvider(ctx, Config{Engine: engine, Logger: quietLogger()}); err == nil || p != nil {
			t.Errorf("%s: expected error without api key, got %v", engine, p)
		}
	}

	p, err := NewProvider(ctx, Config{Engine: EngineGoogle, Logger: quietLogger()})
	if err != nil || p.Name() != "google" {
		t.Errorf("expected google provider, got %v err=%v", p, err)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()
	cases := map[int]error{
		http.StatusBadRequest:          entity.ErrProviderUnsupported,
		http.StatusUnprocessableEntity: entity.ErrProviderUnsupported,
		http.StatusGatewayTimeout:      entity.ErrProviderTimeout,
		http.StatusTooManyRequests:     entity.ErrProviderUnavailable,
		http.StatusInternalServerError: entity.ErrProviderUnavailable,
		http.StatusUnauthorized:        entity.ErrProviderUnavailable,
	}
	for status, want := range cases {
		if err := statusError("x", status, ""); !errors.Is(err, want) {
			t.Errorf("status %d: expected %v, got %v", status, want, err)
		}
	}

	if err := transportError("x", context.DeadlineExceeded); !errors.Is(err, entity.ErrProviderTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
	if err := transportError("x", errors.New("connection refused")); !errors.Is(err, entity.ErrProviderUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()
	p := userPrompt("hello", "en", "es")
	if !strings.Contains(p, "Source language: English") || !strings.Contains(p, "Target language: Spanish") {
		t.Errorf("unexpected prompt: %q", p)
	}
	if p := userPrompt("hello", entity.UnknownLanguage, "zh-cn"); strings.Contains(p, "Source language") {
		t.Errorf("unknown source must be omitted: %q", p)
	}
}

func TestGoogleClient_Translate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/translate_a/single" || q.Get("client") != "gtx" || q.Get("dt") != "t" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if q.Get("sl") != "auto" || q.Get("tl") != "zh-CN" || q.Get("q") != "Hello. World." {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[[["你好。","Hello.",null,null,10],["世界。","World.",null,null,10]],null,"en"]`)
	}))
	defer srv.Close()

	c := NewGoogleClient(srv.URL, time.Second, quietLogger())
	got, err := c.Translate(context.Background(), "Hello. World.", entity.UnknownLanguage, "zh-cn")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "你好。世界。" {
		t.Errorf("unexpected translation %q", got)
	}
}

func TestGoogleClient_ServerErrorIsUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGoogleClient(srv.URL, time.Second, quietLogger())
	if _, err := c.Translate(context.Background(), "hello", "en", "es"); !errors.Is(err, entity.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestGoogleClient_TimeoutIsClassified(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewGoogleClient(srv.URL, 5*time.Second, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Translate(ctx, "hello", "en", "es"); !errors.Is(err, entity.ErrProviderTimeout) {
		t.Errorf("expected ErrProviderTimeout, got %v", err)
	}
}

func TestParseGoogleResponse_Malformed(t *testing.T) {
	t.Parallel()
	for _, body := range []string{`{}`, `[]`, `["x"]`} {
		if _, err := parseGoogleResponse([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestLibreTranslateClient_Translate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req libreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Target == "xx" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"xx is not supported"}`)
			return
		}
		if req.Source != "en" || req.Target != "zt" || req.APIKey != "secret" || req.Format != "text" {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"unexpected request"}`)
			return
		}
		json.NewEncoder(w).Encode(libreResponse{TranslatedText: "你好"})
	}))
	defer srv.Close()

	c := NewLibreTranslateClient(srv.URL, "secret", time.Second, quietLogger())
	got, err := c.Translate(context.Background(), "hello", "en", "zh-tw")
	if err != nil || got != "你好" {
		t.Fatalf("expected 你好, got %q err=%v", got, err)
	}

	_, err = c.Translate(context.Background(), "hello", "en", "xx")
	if !errors.Is(err, entity.ErrProviderUnsupported) || !strings.Contains(err.Error(), "xx is not supported") {
		t.Errorf("expected unsupported with server message, got %v", err)
	}
}

func TestOpenAIClient_Translate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if len(req.Messages) != 2 || !strings.HasSuffix(req.Messages[1].Content, "hello") {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"quota","type":"rate_limit"}}`)
			return
		}
		io.WriteString(w, `{"id":"1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":" hola \n"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(srv.URL, "key", "m", quietLogger())
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	got, err := c.Translate(context.Background(), "hello", "en", "es")
	if err != nil || got != "hola" {
		t.Fatalf("expected hola, got %q err=%v", got, err)
	}

	if _, err := c.Translate(context.Background(), "other", "en", "es"); !errors.Is(err, entity.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestAnthropicClient_Translate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("X-Api-Key") != "key" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(string(body), "forbidden") {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad input"}}`)
			return
		}
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"hola"}],"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c, err := NewAnthropicClient(srv.URL, "key", "m", quietLogger())
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}
	got, err := c.Translate(context.Background(), "hello", "en", "es")
	if err != nil || got != "hola" {
		t.Fatalf("expected hola, got %q err=%v", got, err)
	}

	if _, err := c.Translate(context.Background(), "forbidden", "en", "es"); !errors.Is(err, entity.ErrProviderUnsupported) {
		t.Errorf("expected ErrProviderUnsupported, got %v", err)
	}
}

func TestGeminiClient_AcquireHonoursContext(t *testing.T) {
	t.Parallel()
	g := &GeminiClient{sem: make(chan struct{}, 1), delay: time.Hour}

	release, err := g.acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	release()

	// second call must wait an hour for spacing; the context ends first
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if len(g.sem) != 0 {
		t.Error("slot must be returned after a cancelled wait")
	}
}
