package repository

import "context"

// TranslationProvider external machine translation backend.
// Failures wrap entity.ErrProviderTimeout, ErrProviderUnavailable or ErrProviderUnsupported.
type TranslationProvider interface {
	// Translate translates text into targetLang. sourceLang may be entity.UnknownLanguage.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// Name engine name used in logs and metrics
	Name() string
}

// LanguageDetector detects the language of a message
type LanguageDetector interface {
	// Detect returns a supported language code, or ok=false when unknown
	Detect(text string) (code string, ok bool)
}
