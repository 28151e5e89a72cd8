package entity

import "errors"

var (
	// ErrInvalidLanguageCode language code is not in SupportedLanguages
	ErrInvalidLanguageCode = errors.New("invalid language code")

	// ErrRateLimited sender exceeded the per-window request limit
	ErrRateLimited = errors.New("rate limited")

	// ErrStorageUnavailable settings storage could not be read or written
	ErrStorageUnavailable = errors.New("settings storage unavailable")

	ErrProviderTimeout     = errors.New("translation provider timeout")
	ErrProviderUnavailable = errors.New("translation provider unavailable")
	ErrProviderUnsupported = errors.New("translation provider does not support this text")

	// ErrNotAuthorized caller may not run the administrative command
	ErrNotAuthorized = errors.New("not authorized")
)
