// Package usecase defines business logic interfaces for token operations.
package usecase

import (
	"context"
	"time"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

// RefreshTokenRepository defines persistence operations for refresh tokens.
// Implementations must support transaction-aware operations via context propagation.
type RefreshTokenRepository interface {
	// Create stores a new refresh token in the repository.
	Create(ctx context.Context, token *tokenDomain.RefreshToken) error

	// Update modifies an existing refresh token in the repository.
	Update(ctx context.Context, token *tokenDomain.RefreshToken) error

	// GetByTokenHash retrieves a refresh token by its SHA-256 hash.
	// Returns ErrRefreshTokenNotFound if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*tokenDomain.RefreshToken, error)

	// DeleteExpired removes refresh tokens that expired before the given time
	// and returns the number of deleted rows.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenUseCase defines business logic operations for access and refresh tokens.
//
// Access tokens are stateless: issuance signs a claim set and validation
// verifies the signature against the key store, with no repository involved.
// Refresh tokens are stateful: the hash of each issued token is persisted so
// it can be looked up and revoked.
type TokenUseCase interface {
	// IssueAccess creates a short-lived signed access token for the principal.
	// The roles slice is embedded in the token as an advisory hint only;
	// authorization always resolves roles at evaluation time.
	IssueAccess(ctx context.Context, principal *principalDomain.Principal, roles []string) (string, error)

	// ValidateAccess verifies an access token's signature, expiry and issuer,
	// returning its claims. All validation failures map to unauthenticated
	// outcomes; claims are never returned from a token that failed to verify.
	ValidateAccess(ctx context.Context, token string) (*tokenDomain.AccessClaims, error)

	// IssueRefresh creates a new opaque refresh token for the principal and
	// persists its hash. Returns the plain token, which is shown exactly once.
	IssueRefresh(ctx context.Context, principal *principalDomain.Principal) (string, error)

	// ValidateRefresh looks up a plain refresh token by its hash and checks
	// that it is neither expired nor revoked. Returns ErrRefreshTokenInvalid
	// for unknown, expired and revoked tokens alike to prevent enumeration.
	ValidateRefresh(ctx context.Context, plainToken string) (*tokenDomain.RefreshToken, error)

	// Revoke marks a refresh token as revoked. Revoking an already-revoked
	// or unknown token is a no-op, so callers cannot probe which tokens
	// exist.
	Revoke(ctx context.Context, plainToken string) error

	// DeleteExpired removes refresh tokens whose expiry has passed and
	// returns the number of rows deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}
