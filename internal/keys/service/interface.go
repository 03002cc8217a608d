// Package service provides signing key storage backends.
//
// Two interchangeable backends implement the KeyStore capability: a local
// store built from configuration (PEM-encoded Ed25519 key or a symmetric
// secret) and a Vault-backed store that fetches key material over the
// network. A caching decorator bounds backend round trips.
package service

import (
	"context"

	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
)

// KeyStore supplies signing and verification material for tokens.
//
// Failure semantics: backend errors surface as ErrKeyUnavailable, missing
// keys as ErrKeyNotFound. Implementations never substitute a default key.
type KeyStore interface {
	// GetSigningKey returns the private signing material for the key ID.
	GetSigningKey(ctx context.Context, keyID string) (*keysDomain.SigningKey, error)

	// GetVerificationKey returns the shareable verification material for the key ID.
	GetVerificationKey(ctx context.Context, keyID string) (*keysDomain.VerificationKey, error)

	// IsAvailable reports whether the backend can currently serve keys.
	IsAvailable(ctx context.Context) bool
}
