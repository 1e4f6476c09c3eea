package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ValidateSettings().
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidListenAddress is returned when the listen address is not "host:port".
	ErrInvalidListenAddress = errors.New("invalid listen address: must be host:port")

	// ErrInvalidHistoryLimit is returned when the history limit is not positive.
	ErrInvalidHistoryLimit = errors.New("invalid history limit: must be at least 1")

	// ErrInvalidContextTTL is returned when the context TTL is not positive.
	ErrInvalidContextTTL = errors.New("invalid context ttl: must be positive")

	// ErrInvalidRedirectLevels is returned when redirectLevels is below 1.
	ErrInvalidRedirectLevels = errors.New("invalid redirect levels: must be at least 1")

	// ErrInvalidLanguage is returned when the language is not a BCP 47 tag.
	ErrInvalidLanguage = errors.New("invalid language: must be a BCP 47 tag such as en or es")

	// ErrInvalidCDPURL is returned when the DevTools URL is not http(s) or ws(s).
	ErrInvalidCDPURL = errors.New("invalid cdp url: must be an http, https, ws or wss URL")

	// ErrInvalidNtfyEndpoint is returned when the ntfy endpoint is not http(s).
	ErrInvalidNtfyEndpoint = errors.New("invalid ntfy endpoint: must be an http or https URL")
)
