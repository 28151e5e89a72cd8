package entity

import (
	"sort"
	"strings"
)

// UnknownLanguage returned when the source language could not be detected
const UnknownLanguage = "auto"

// SupportedLanguages target languages a chat may select
var SupportedLanguages = map[string]string{
	"en":    "English",
	"ru":    "Russian",
	"hi":    "Hindi",
	"bn":    "Bengali",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
	"pt":    "Portuguese",
	"tr":    "Turkish",
	"ar":    "Arabic",
	"ur":    "Urdu",
	"fa":    "Persian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"zh-cn": "Chinese (Simplified)",
	"zh-tw": "Chinese (Traditional)",
	"vi":    "Vietnamese",
	"th":    "Thai",
	"id":    "Indonesian",
	"ms":    "Malay",
	"nl":    "Dutch",
	"pl":    "Polish",
	"uk":    "Ukrainian",
	"ro":    "Romanian",
	"el":    "Greek",
	"sv":    "Swedish",
	"no":    "Norwegian",
	"fi":    "Finnish",
	"he":    "Hebrew",
}

// NormalizeLanguageCode lower-cases and trims a user supplied code
func NormalizeLanguageCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// IsSupportedLanguage reports whether code is a supported target language
func IsSupportedLanguage(code string) bool {
	_, ok := SupportedLanguages[code]
	return ok
}

// LanguageCodes sorted list of supported codes
func LanguageCodes() []string {
	codes := make([]string, 0, len(SupportedLanguages))
	for code := range SupportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
