package config

import "errors"

// Validation errors returned by [Config.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAPIConfigs indicates invalid RadarGame API client settings
	// (for example, an empty base URL).
	ErrInvalidAPIConfigs = errors.New("invalid api configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidBotConfigs indicates invalid bot settings
	// (for example, a missing bot token).
	ErrInvalidBotConfigs = errors.New("invalid bot configuration")
	// ErrInvalidCredentialKey indicates that APP_CREDENTIAL_KEY is set but
	// is not 32 hex-encoded bytes.
	ErrInvalidCredentialKey = errors.New("invalid credential key")
	// ErrInvalidDNSProfile indicates a DNS profile entry with a missing
	// name or resolver address.
	ErrInvalidDNSProfile = errors.New("invalid dns profile")
)
