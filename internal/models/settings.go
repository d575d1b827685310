package models

import "time"

// SettingsKey is the primary key of the singleton settings row.
const SettingsKey = "global"

// DefaultCharacterLimit is the monthly character allowance of a free
// provider key, used until a real usage snapshot is fetched.
const DefaultCharacterLimit int64 = 500000

const (
	DefaultAppLanguage = "en"
	DefaultSourceLang  = "EN"
	DefaultTargetLang  = "ZH"
)

// Usage is the last known character consumption of the provider key.
// LastUpdated is a Unix timestamp in milliseconds.
type Usage struct {
	CharacterCount int64 `json:"characterCount"`
	CharacterLimit int64 `json:"characterLimit"`
	LastUpdated    int64 `json:"lastUpdated"`
}

// UserSettings is the singleton settings record. APIKey is nil until the
// user provides a provider key.
type UserSettings struct {
	ID                  string  `json:"id"`
	UserName            string  `json:"userName"`
	Signature           string  `json:"signature"`
	AppLanguage         string  `json:"appLanguage"`
	SourceLang          string  `json:"sourceLang"`
	TargetLang          string  `json:"targetLang"`
	APIKey              *string `json:"apiKey"`
	Usage               Usage   `json:"usage"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
}

// DefaultUsage is the usage snapshot of a fresh install.
func DefaultUsage(now time.Time) Usage {
	return Usage{CharacterCount: 0, CharacterLimit: DefaultCharacterLimit, LastUpdated: now.UnixMilli()}
}

// DefaultUserSettings returns the record materialized on first read.
func DefaultUserSettings(now time.Time) *UserSettings {
	return &UserSettings{
		ID:                  SettingsKey,
		AppLanguage:         DefaultAppLanguage,
		SourceLang:          DefaultSourceLang,
		TargetLang:          DefaultTargetLang,
		APIKey:              nil,
		Usage:               DefaultUsage(now),
		OnboardingCompleted: false,
	}
}

// HasAPIKey reports whether a non-empty provider key is configured.
func (s *UserSettings) HasAPIKey() bool {
	return s.APIKey != nil && *s.APIKey != ""
}
