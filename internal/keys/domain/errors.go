package domain

import (
	"github.com/wardenauth/warden/internal/errors"
)

// Signing key errors.
var (
	// ErrKeyNotFound indicates no key exists for the requested key ID.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "signing key not found")

	// ErrKeyUnavailable indicates the key backend could not be reached.
	// Callers must treat this as an authentication failure, never fall back
	// to a default key.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "signing key unavailable")

	// ErrInvalidKeyMaterial indicates the configured or fetched key material
	// could not be parsed.
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrInvalidInput, "invalid key material")
)
