package config

import "encoding/hex"

// validate checks that the final merged [Config] satisfies all application
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *Config) validate() error {
	if cfg.API.BaseURL == "" {
		return ErrInvalidAPIConfigs
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Bot.Token == "" {
		return ErrInvalidBotConfigs
	}

	if cfg.App.CredentialKey != "" {
		key, err := hex.DecodeString(cfg.App.CredentialKey)
		if err != nil || len(key) != 32 {
			return ErrInvalidCredentialKey
		}
	}

	return nil
}
