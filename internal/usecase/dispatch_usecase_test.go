package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/cache"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/ratelimit"
)

type spyLimiter struct {
	inner *ratelimit.FixedWindow
	calls atomic.Int64
}

func (s *spyLimiter) Admit(senderID int64) bool {
	s.calls.Add(1)
	return s.inner.Admit(senderID)
}

type spyCache struct {
	inner *cache.LRU
	gets  atomic.Int64
	puts  atomic.Int64
}

func (s *spyCache) Get(key entity.CacheKey) (string, bool) {
	s.gets.Add(1)
	return s.inner.Get(key)
}

func (s *spyCache) Put(key entity.CacheKey, value string) {
	s.puts.Add(1)
	s.inner.Put(key, value)
}

type mapDetector map[string]string

func (d mapDetector) Detect(text string) (string, bool) {
	lang, ok := d[text]
	return lang, ok
}

type fakeProvider struct {
	calls atomic.Int64
	fn    func(ctx context.Context, text, target string) (string, error)
}

func (p *fakeProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	p.calls.Add(1)
	return p.fn(ctx, text, target)
}

func (p *fakeProvider) Name() string { return "fake" }

func dictionary(words map[string]string) func(context.Context, string, string) (string, error) {
	return func(_ context.Context, text, _ string) (string, error) {
		return words[text], nil
	}
}

type pipelineFixture struct {
	settings SettingsUseCase
	limiter  *spyLimiter
	cache    *spyCache
	provider *fakeProvider
	pipeline DispatchUseCase
}

func newFixture(t *testing.T, limit int, provider *fakeProvider, cfg DispatchConfig) *pipelineFixture {
	t.Helper()
	settings, _ := newSettings(t)
	f := &pipelineFixture{
		settings: settings,
		limiter:  &spyLimiter{inner: ratelimit.New(limit, time.Minute)},
		cache:    &spyCache{inner: cache.New(64)},
		provider: provider,
	}
	f.pipeline = NewDispatchUseCase(
		settings,
		f.limiter,
		f.cache,
		mapDetector{"hello": "en", "hola": "es", "guten tag": "de"},
		provider,
		nil,
		cfg,
		quietLogger(),
	)
	return f
}

func (f *pipelineFixture) setLang(t *testing.T, chatID int64, lang string) {
	t.Helper()
	if _, err := f.settings.SetChatLanguage(context.Background(), chatID, lang); err != nil {
		t.Fatalf("SetChatLanguage failed: %v", err)
	}
}

func msg(chatID, senderID int64, text string) entity.InboundMessage {
	return entity.InboundMessage{ChatID: chatID, SenderID: senderID, MessageID: 1, Text: text}
}

func TestDispatch_TranslatesThenServesFromCache(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(map[string]string{"hello": "hola"})}
	f := newFixture(t, 10, provider, DispatchConfig{})
	f.setLang(t, 1, "es")
	ctx := context.Background()

	first := f.pipeline.Handle(ctx, msg(1, 100, "hello"))
	if first.Outcome != entity.OutcomeDelivered || first.Text != "hola" {
		t.Fatalf("expected delivered hola, got %+v", first)
	}
	if first.Reason != entity.ReasonTranslated || first.CacheHit {
		t.Errorf("expected fresh translation, got %+v", first)
	}
	if first.SourceLang != "en" || first.TargetLang != "es" {
		t.Errorf("unexpected languages %s -> %s", first.SourceLang, first.TargetLang)
	}
	if v, ok := f.cache.inner.Get(entity.CacheKey{Text: "hello", Lang: "es"}); !ok || v != "hola" {
		t.Errorf("expected cached hola, got %q ok=%v", v, ok)
	}

	second := f.pipeline.Handle(ctx, msg(1, 100, "hello"))
	if second.Outcome != entity.OutcomeDelivered || second.Text != "hola" || !second.CacheHit {
		t.Errorf("expected cache hit, got %+v", second)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("expected 1 provider call, got %d", got)
	}
	if first.RequestID == "" || first.RequestID == second.RequestID {
		t.Error("expected distinct request ids")
	}
}

func TestDispatch_TogglePrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		chatEnabled bool
		userEnabled bool
		want        entity.Outcome
		reason      string
	}{
		{"both enabled", true, true, entity.OutcomeDelivered, entity.ReasonTranslated},
		{"chat disabled", false, true, entity.OutcomeSuppressed, entity.ReasonChatDisabled},
		{"user disabled", true, false, entity.OutcomeSuppressed, entity.ReasonUserDisabled},
		{"both disabled", false, false, entity.OutcomeSuppressed, entity.ReasonChatDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{fn: dictionary(map[string]string{"hello": "hola"})}
			f := newFixture(t, 10, provider, DispatchConfig{})
			ctx := context.Background()
			f.setLang(t, 1, "es")
			f.settings.SetChatTranslation(ctx, 1, tc.chatEnabled)
			f.settings.SetUserTranslation(ctx, 100, tc.userEnabled)

			res := f.pipeline.Handle(ctx, msg(1, 100, "hello"))
			if res.Outcome != tc.want || res.Reason != tc.reason {
				t.Errorf("expected %s/%s, got %s/%s", tc.want, tc.reason, res.Outcome, res.Reason)
			}
			if tc.want == entity.OutcomeSuppressed {
				if res.Text != "hello" {
					t.Errorf("suppressed output must equal input, got %q", res.Text)
				}
				if f.limiter.calls.Load() != 0 || f.cache.gets.Load() != 0 || f.cache.puts.Load() != 0 {
					t.Error("disabled traffic must not touch limiter or cache")
				}
			}
		})
	}
}

func TestDispatch_SameLanguageShortCircuit(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(nil)}
	f := newFixture(t, 10, provider, DispatchConfig{})
	f.setLang(t, 1, "es")

	res := f.pipeline.Handle(context.Background(), msg(1, 100, "hola"))
	if res.Outcome != entity.OutcomeSuppressed || res.Reason != entity.ReasonSameLanguage {
		t.Fatalf("expected same-language suppression, got %+v", res)
	}
	if res.Text != "hola" {
		t.Errorf("output must equal input, got %q", res.Text)
	}
	if f.cache.inner.Len() != 0 || f.cache.puts.Load() != 0 {
		t.Error("same-language message must not create a cache entry")
	}
	if provider.calls.Load() != 0 {
		t.Error("provider must not be called")
	}
}

func TestDispatch_UnknownLanguageStillTranslates(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(map[string]string{"ciao": "hi"})}
	f := newFixture(t, 10, provider, DispatchConfig{})

	res := f.pipeline.Handle(context.Background(), msg(1, 100, "ciao"))
	if res.Outcome != entity.OutcomeDelivered || res.Text != "hi" {
		t.Fatalf("expected delivered translation, got %+v", res)
	}
	if res.SourceLang != entity.UnknownLanguage {
		t.Errorf("expected unknown source, got %q", res.SourceLang)
	}
}

func TestDispatch_FailsClosedOnStorageError(t *testing.T) {
	t.Parallel()
	settings, err := NewSettingsUseCase(failingRepo{}, "en", quietLogger())
	if err != nil {
		t.Fatalf("NewSettingsUseCase failed: %v", err)
	}
	limiter := &spyLimiter{inner: ratelimit.New(10, time.Minute)}
	c := &spyCache{inner: cache.New(8)}
	provider := &fakeProvider{fn: dictionary(nil)}
	pipeline := NewDispatchUseCase(settings, limiter, c, mapDetector{}, provider, nil, DispatchConfig{}, quietLogger())

	res := pipeline.Handle(context.Background(), msg(1, 100, "hello"))
	if res.Outcome != entity.OutcomeSuppressed || res.Reason != entity.ReasonStorage {
		t.Fatalf("expected storage suppression, got %+v", res)
	}
	if !errors.Is(res.Err, entity.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", res.Err)
	}
	if res.Text != "hello" {
		t.Errorf("output must equal input, got %q", res.Text)
	}
	if limiter.calls.Load() != 0 || c.gets.Load() != 0 || c.puts.Load() != 0 || provider.calls.Load() != 0 {
		t.Error("storage failure must not touch limiter, cache or provider")
	}
}

func TestDispatch_RateLimitRejectsNPlusOne(t *testing.T) {
	t.Parallel()
	const n = 3
	provider := &fakeProvider{fn: dictionary(map[string]string{"hello": "hola"})}
	f := newFixture(t, n, provider, DispatchConfig{})
	f.setLang(t, 1, "es")
	ctx := context.Background()

	for i := 0; i < n; i++ {
		if res := f.pipeline.Handle(ctx, msg(1, 100, "hello")); res.Outcome != entity.OutcomeDelivered {
			t.Fatalf("message %d: expected delivered, got %+v", i+1, res)
		}
	}

	res := f.pipeline.Handle(ctx, msg(1, 100, "hello"))
	if res.Outcome != entity.OutcomeRejected || !errors.Is(res.Err, entity.ErrRateLimited) {
		t.Fatalf("expected rate limited rejection, got %+v", res)
	}
	if res.Notice != RateLimitNotice {
		t.Errorf("expected rate limit notice, got %q", res.Notice)
	}

	// other senders are unaffected
	if other := f.pipeline.Handle(ctx, msg(1, 200, "hello")); other.Outcome != entity.OutcomeDelivered {
		t.Errorf("expected other sender delivered, got %+v", other)
	}
}

func TestDispatch_SilentRateLimit(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(map[string]string{"hello": "hola"})}
	f := newFixture(t, 1, provider, DispatchConfig{RateLimitSilent: true})
	f.setLang(t, 1, "es")
	ctx := context.Background()

	f.pipeline.Handle(ctx, msg(1, 100, "hello"))
	res := f.pipeline.Handle(ctx, msg(1, 100, "hello"))
	if res.Outcome != entity.OutcomeRejected || res.Notice != "" {
		t.Errorf("expected silent rejection, got %+v", res)
	}
}

func TestDispatch_NoTextIsSuppressedBeforeRateCheck(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(nil)}
	f := newFixture(t, 1, provider, DispatchConfig{})

	res := f.pipeline.Handle(context.Background(), msg(1, 100, "🙂 !!"))
	if res.Outcome != entity.OutcomeSuppressed || res.Reason != entity.ReasonNoText {
		t.Errorf("expected no_text suppression, got %+v", res)
	}
	if f.limiter.calls.Load() != 0 {
		t.Error("limiter must not be consulted")
	}
}

func TestDispatch_ProviderFailuresFallBackToOriginal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		reason string
		want   error
		notice string
	}{
		{"unavailable", errors.New("connection refused"), entity.ReasonProviderDown, entity.ErrProviderUnavailable, ProviderDownNotice},
		{"unsupported", entity.ErrProviderUnsupported, entity.ReasonProviderRejected, entity.ErrProviderUnsupported, UnsupportedNotice},
		{"deadline", context.DeadlineExceeded, entity.ReasonProviderTimeout, entity.ErrProviderTimeout, ProviderTimeoutNotice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{fn: func(context.Context, string, string) (string, error) {
				return "", tc.err
			}}
			f := newFixture(t, 10, provider, DispatchConfig{})
			f.setLang(t, 1, "es")

			res := f.pipeline.Handle(context.Background(), msg(1, 100, "hello"))
			if res.Outcome != entity.OutcomeRejected || res.Reason != tc.reason {
				t.Fatalf("expected rejected/%s, got %s/%s", tc.reason, res.Outcome, res.Reason)
			}
			if !errors.Is(res.Err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, res.Err)
			}
			if res.Text != "hello" || res.Notice != tc.notice {
				t.Errorf("expected original text with notice, got %q / %q", res.Text, res.Notice)
			}
			if f.cache.inner.Len() != 0 {
				t.Error("failed translation must not be cached")
			}
		})
	}
}

func TestDispatch_EmptyTranslationIsUnsupported(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(map[string]string{})}
	f := newFixture(t, 10, provider, DispatchConfig{})
	f.setLang(t, 1, "es")

	res := f.pipeline.Handle(context.Background(), msg(1, 100, "hello"))
	if !errors.Is(res.Err, entity.ErrProviderUnsupported) {
		t.Errorf("expected ErrProviderUnsupported, got %v", res.Err)
	}
}

func TestDispatch_ProviderTimeoutIsBounded(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	defer close(release)

	// ignores its context entirely
	provider := &fakeProvider{fn: func(context.Context, string, string) (string, error) {
		<-release
		return "late", nil
	}}
	f := newFixture(t, 10, provider, DispatchConfig{ProviderTimeout: 50 * time.Millisecond})
	f.setLang(t, 1, "es")

	start := time.Now()
	res := f.pipeline.Handle(context.Background(), msg(1, 100, "hello"))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Handle blocked for %v", elapsed)
	}
	if res.Outcome != entity.OutcomeRejected || !errors.Is(res.Err, entity.ErrProviderTimeout) {
		t.Errorf("expected provider timeout, got %+v", res)
	}
}

func TestDispatch_ConcurrentMissesShareOneProviderCall(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	provider := &fakeProvider{fn: func(context.Context, string, string) (string, error) {
		<-gate
		return "hola", nil
	}}
	f := newFixture(t, 100, provider, DispatchConfig{ProviderTimeout: 5 * time.Second})
	f.setLang(t, 1, "es")
	ctx := context.Background()

	const callers = 8
	results := make([]entity.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.pipeline.Handle(ctx, msg(1, int64(100+i), "hello"))
		}(i)
	}

	// let every caller join the in-flight call before releasing it
	deadline := time.Now().Add(2 * time.Second)
	for f.cache.gets.Load() < callers && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, res := range results {
		if res.Outcome != entity.OutcomeDelivered || res.Text != "hola" {
			t.Errorf("caller %d: expected hola, got %+v", i, res)
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("expected a single provider call, got %d", got)
	}
	if got := f.cache.puts.Load(); got != 1 {
		t.Errorf("expected a single cache write, got %d", got)
	}
}

func TestDispatch_CacheKeyIsTrimmed(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{fn: dictionary(map[string]string{"guten tag": "good day"})}
	f := newFixture(t, 10, provider, DispatchConfig{})
	ctx := context.Background()

	f.pipeline.Handle(ctx, msg(1, 100, "guten tag"))
	res := f.pipeline.Handle(ctx, msg(1, 100, "  guten tag\n"))
	if !res.CacheHit || res.Text != "good day" {
		t.Errorf("expected trimmed cache hit, got %+v", res)
	}
}

func TestHasText(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"hello":  true,
		"42":     true,
		"привет": true,
		"":       false,
		"   ":    false,
		"?!🙂":    false,
	}
	for in, want := range cases {
		if got := hasText(in); got != want {
			t.Errorf("hasText(%q) = %v, want %v", in, got, want)
		}
	}
}
