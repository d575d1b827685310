// Package common defines sentinel errors and small helpers shared by the
// store, the translation gateway and the backup layer. Callers should use
// errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Store-level errors.
	ErrNotFound        = errors.New("not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnknownTable    = errors.New("unknown table")

	// ErrInvalidInput rejects a create or update whose fields fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMigration aborts store initialization. Data behind a failed
	// migration must not be used.
	ErrMigration = errors.New("migration failed")

	// Backup errors.
	ErrInvalidBackup = errors.New("invalid backup")
	ErrWrongPassword = errors.New("wrong passphrase or corrupted backup")

	// Translation errors.
	ErrEmptyInput         = errors.New("empty input")
	ErrServiceUnavailable = errors.New("translation service unavailable")
)

// ProviderErrorKind classifies a non-success answer of the translation relay.
type ProviderErrorKind string

const (
	QuotaExceeded     ProviderErrorKind = "quota_exceeded"
	InvalidCredential ProviderErrorKind = "invalid_credential"
	Other             ProviderErrorKind = "other"
)

// ProviderError is returned when the relay answered with a non-2xx status.
type ProviderError struct {
	Kind    ProviderErrorKind
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("translation provider error (%s, status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("translation provider error (%s, status %d): %s", e.Kind, e.Status, e.Message)
}

// KindForStatus maps a relay HTTP status to a ProviderErrorKind.
// 456 is the provider's "quota exceeded" status.
func KindForStatus(status int) ProviderErrorKind {
	switch status {
	case 456, 429:
		return QuotaExceeded
	case 401, 403:
		return InvalidCredential
	default:
		return Other
	}
}

// IsProviderKind reports whether err carries a ProviderError of the given kind.
func IsProviderKind(err error, kind ProviderErrorKind) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
