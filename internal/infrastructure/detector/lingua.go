package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

// MaxTextLengthForDetection longer texts are cut to this many runes
const MaxTextLengthForDetection = 512

var linguaCodes = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.Russian:    "ru",
	lingua.Hindi:      "hi",
	lingua.Bengali:    "bn",
	lingua.Spanish:    "es",
	lingua.French:     "fr",
	lingua.German:     "de",
	lingua.Italian:    "it",
	lingua.Portuguese: "pt",
	lingua.Turkish:    "tr",
	lingua.Arabic:     "ar",
	lingua.Urdu:       "ur",
	lingua.Persian:    "fa",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.Chinese:    "zh-cn",
	lingua.Vietnamese: "vi",
	lingua.Thai:       "th",
	lingua.Indonesian: "id",
	lingua.Malay:      "ms",
	lingua.Dutch:      "nl",
	lingua.Polish:     "pl",
	lingua.Ukrainian:  "uk",
	lingua.Romanian:   "ro",
	lingua.Greek:      "el",
	lingua.Swedish:    "sv",
	lingua.Bokmal:     "no",
	lingua.Nynorsk:    "no",
	lingua.Finnish:    "fi",
	lingua.Hebrew:     "he",
}

type linguaDetector struct {
	detector lingua.LanguageDetector
}

// Option configures the lingua detector
type Option func(lingua.LanguageDetectorBuilder) lingua.LanguageDetectorBuilder

// WithPreloadedModels loads every language model at startup instead of on first use
func WithPreloadedModels() Option {
	return func(b lingua.LanguageDetectorBuilder) lingua.LanguageDetectorBuilder {
		return b.WithPreloadedLanguageModels()
	}
}

// WithMinimumRelativeDistance report unknown unless the best guess wins by this margin
func WithMinimumRelativeDistance(d float64) Option {
	return func(b lingua.LanguageDetectorBuilder) lingua.LanguageDetectorBuilder {
		return b.WithMinimumRelativeDistance(d)
	}
}

// NewLingua LanguageDetector limited to the supported languages
func NewLingua(opts ...Option) repository.LanguageDetector {
	languages := make([]lingua.Language, 0, len(linguaCodes))
	for lang := range linguaCodes {
		languages = append(languages, lang)
	}

	builder := lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	for _, opt := range opts {
		builder = opt(builder)
	}
	return &linguaDetector{detector: builder.Build()}
}

// Detect returns ("", false) when the language is unknown
func (d *linguaDetector) Detect(text string) (string, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return "", false
	}
	if utf8.RuneCountInString(clean) > MaxTextLengthForDetection {
		clean = string([]rune(clean)[:MaxTextLengthForDetection])
	}

	lang, ok := d.detector.DetectLanguageOf(clean)
	if !ok {
		return "", false
	}
	code, ok := linguaCodes[lang]
	if !ok || !entity.IsSupportedLanguage(code) {
		return "", false
	}
	return code, true
}
