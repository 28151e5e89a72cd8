package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

const (
	DefaultProviderTimeout = 10 * time.Second

	RateLimitNotice       = "⏳ Too many messages. Please wait a few seconds before sending more."
	ProviderTimeoutNotice = "⚠️ Translation timed out. The original message is shown as is."
	ProviderDownNotice    = "⚠️ Translation is unavailable right now. The original message is shown as is."
	UnsupportedNotice     = "⚠️ This text could not be translated."
)

// DispatchUseCase turns an inbound message into a translation or a pass-through
type DispatchUseCase interface {
	// Handle never returns an error; failures become terminal results
	Handle(ctx context.Context, msg entity.InboundMessage) entity.Result
}

// RateLimiter admits or rejects a sender's request
type RateLimiter interface {
	Admit(senderID int64) bool
}

// TranslationCache bounded translation store
type TranslationCache interface {
	Get(key entity.CacheKey) (string, bool)
	Put(key entity.CacheKey, value string)
}

// DispatchRecorder receives pipeline events for metrics
type DispatchRecorder interface {
	RecordMessage(outcome, reason string)
	RecordCacheLookup(hit bool)
	RecordProviderCall(duration time.Duration, status string, requestSize int)
}

// DispatchConfig pipeline policy knobs
type DispatchConfig struct {
	ProviderTimeout time.Duration
	RateLimitSilent bool
}

type dispatchUseCase struct {
	settings SettingsUseCase
	limiter  RateLimiter
	cache    TranslationCache
	detector repository.LanguageDetector
	provider repository.TranslationProvider
	recorder DispatchRecorder
	cfg      DispatchConfig
	flight   singleflight.Group
	logger   *logrus.Logger
}

// NewDispatchUseCase creates a DispatchUseCase. recorder may be nil.
func NewDispatchUseCase(
	settings SettingsUseCase,
	limiter RateLimiter,
	cache TranslationCache,
	detector repository.LanguageDetector,
	provider repository.TranslationProvider,
	recorder DispatchRecorder,
	cfg DispatchConfig,
	logger *logrus.Logger,
) DispatchUseCase {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &dispatchUseCase{
		settings: settings,
		limiter:  limiter,
		cache:    cache,
		detector: detector,
		provider: provider,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

func (u *dispatchUseCase) Handle(ctx context.Context, msg entity.InboundMessage) entity.Result {
	res := entity.Result{
		RequestID:  uuid.NewString(),
		Text:       msg.Text,
		SourceLang: entity.UnknownLanguage,
	}
	log := u.logger.WithFields(logrus.Fields{
		"request_id": res.RequestID,
		"chat_id":    msg.ChatID,
		"sender_id":  msg.SenderID,
	})

	res = u.dispatch(ctx, msg, res)

	u.recorder.RecordMessage(string(res.Outcome), res.Reason)
	entry := log.WithFields(logrus.Fields{
		"outcome":   res.Outcome,
		"reason":    res.Reason,
		"source":    res.SourceLang,
		"target":    res.TargetLang,
		"cache_hit": res.CacheHit,
	})
	switch {
	case res.Reason == entity.ReasonStorage:
		entry.WithError(res.Err).Error("settings lookup failed, message suppressed")
	case res.Outcome == entity.OutcomeRejected && res.Reason != entity.ReasonRateLimited:
		entry.WithError(res.Err).Warn("translation failed")
	default:
		entry.Debug("message dispatched")
	}
	return res
}

func (u *dispatchUseCase) dispatch(ctx context.Context, msg entity.InboundMessage, res entity.Result) entity.Result {
	// ELIGIBLE_CHECK
	chat, err := u.settings.GetChatSetting(ctx, msg.ChatID)
	if err != nil {
		return suppress(res, entity.ReasonStorage, err)
	}
	res.TargetLang = chat.TargetLanguage
	if !chat.Enabled {
		return suppress(res, entity.ReasonChatDisabled, nil)
	}

	user, err := u.settings.GetUserSetting(ctx, msg.SenderID)
	if err != nil {
		return suppress(res, entity.ReasonStorage, err)
	}
	if !user.Enabled {
		return suppress(res, entity.ReasonUserDisabled, nil)
	}

	if !hasText(msg.Text) {
		return suppress(res, entity.ReasonNoText, nil)
	}

	// RATE_CHECK
	if !u.limiter.Admit(msg.SenderID) {
		res.Outcome = entity.OutcomeRejected
		res.Reason = entity.ReasonRateLimited
		res.Err = entity.ErrRateLimited
		if !u.cfg.RateLimitSilent {
			res.Notice = RateLimitNotice
		}
		return res
	}

	// CACHE_LOOKUP
	if lang, ok := u.detector.Detect(msg.Text); ok {
		res.SourceLang = lang
		if lang == chat.TargetLanguage {
			return suppress(res, entity.ReasonSameLanguage, nil)
		}
	}

	key := entity.CacheKey{Text: strings.TrimSpace(msg.Text), Lang: chat.TargetLanguage}
	if cached, ok := u.cache.Get(key); ok {
		u.recorder.RecordCacheLookup(true)
		res.Outcome = entity.OutcomeDelivered
		res.Reason = entity.ReasonCacheHit
		res.Text = cached
		res.CacheHit = true
		return res
	}
	u.recorder.RecordCacheLookup(false)

	// TRANSLATE
	translated, err := u.translate(ctx, key, res.SourceLang)
	if err != nil {
		res.Outcome = entity.OutcomeRejected
		res.Err = err
		switch {
		case errors.Is(err, entity.ErrProviderTimeout):
			res.Reason = entity.ReasonProviderTimeout
			res.Notice = ProviderTimeoutNotice
		case errors.Is(err, entity.ErrProviderUnsupported):
			res.Reason = entity.ReasonProviderRejected
			res.Notice = UnsupportedNotice
		default:
			res.Reason = entity.ReasonProviderDown
			res.Notice = ProviderDownNotice
		}
		return res
	}

	res.Outcome = entity.OutcomeDelivered
	res.Reason = entity.ReasonTranslated
	res.Text = translated
	return res
}

// translate runs one provider call per key at a time. The call gets its own
// deadline, detached from ctx so a cancelled waiter does not fail the others.
func (u *dispatchUseCase) translate(ctx context.Context, key entity.CacheKey, source string) (string, error) {
	ch := u.flight.DoChan(key.Lang+"\x00"+key.Text, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.ProviderTimeout)
		defer cancel()

		start := time.Now()
		out, err := u.provider.Translate(callCtx, key.Text, source, key.Lang)
		err = classifyProviderError(callCtx, out, err)

		status := "success"
		if err != nil {
			status = reasonFor(err)
		}
		u.recorder.RecordProviderCall(time.Since(start), status, len(key.Text))

		if err != nil {
			return "", err
		}
		u.cache.Put(key, out)
		return out, nil
	})

	timer := time.NewTimer(u.cfg.ProviderTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-timer.C:
		return "", entity.ErrProviderTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", entity.ErrProviderTimeout
		}
		return "", entity.ErrProviderUnavailable
	}
}

func classifyProviderError(ctx context.Context, out string, err error) error {
	switch {
	case err == nil && strings.TrimSpace(out) == "":
		return entity.ErrProviderUnsupported
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrProviderTimeout),
		errors.Is(err, entity.ErrProviderUnavailable),
		errors.Is(err, entity.ErrProviderUnsupported):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Join(entity.ErrProviderTimeout, err)
	default:
		return errors.Join(entity.ErrProviderUnavailable, err)
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, entity.ErrProviderTimeout):
		return entity.ReasonProviderTimeout
	case errors.Is(err, entity.ErrProviderUnsupported):
		return entity.ReasonProviderRejected
	default:
		return entity.ReasonProviderDown
	}
}

func suppress(res entity.Result, reason string, err error) entity.Result {
	res.Outcome = entity.OutcomeSuppressed
	res.Reason = reason
	res.Err = err
	return res
}

// hasText reports whether s carries any letter or digit
func hasText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

type nopRecorder struct{}

func (nopRecorder) RecordMessage(string, string) {}
func (nopRecorder) RecordCacheLookup(bool) {}
func (nopRecorder) RecordProviderCall(time.Duration, string, int) {}
