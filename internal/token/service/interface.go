// Package service provides token-related technical services.
//
// Access tokens are JWTs signed with material from the key store; refresh
// tokens are opaque random values hashed with SHA-256 for storage.
package service

import (
	"context"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

// AccessTokenService issues and validates signed, self-contained access tokens.
type AccessTokenService interface {
	// Issue creates a short-lived access token for the principal, signed
	// with the current signing key. The roles slice is embedded as an
	// advisory hint only.
	Issue(ctx context.Context, principal *principalDomain.Principal, roles []string) (string, error)

	// Validate verifies the token signature using the key identified by the
	// token's embedded key ID, checks expiry, and checks the issuer when one
	// is configured. Claims are never trusted before the signature verifies.
	Validate(ctx context.Context, token string) (*tokenDomain.AccessClaims, error)
}

// RefreshTokenService generates and hashes opaque refresh tokens.
// Implementations must use cryptographically secure random generation.
type RefreshTokenService interface {
	// Generate creates a new random refresh token. Returns the plain token
	// (shown to the caller exactly once) and its SHA-256 hash (stored).
	Generate() (plainToken string, tokenHash string, err error)

	// Hash hashes a plain refresh token for storage lookup.
	Hash(plainToken string) string
}
