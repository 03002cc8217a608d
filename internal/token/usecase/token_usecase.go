// Package usecase implements business logic orchestration for token operations.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wardenauth/warden/internal/config"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
	tokenService "github.com/wardenauth/warden/internal/token/service"
)

// tokenUseCase implements TokenUseCase for access and refresh tokens.
type tokenUseCase struct {
	config              *config.Config
	refreshTokenRepo    RefreshTokenRepository
	accessTokenService  tokenService.AccessTokenService
	refreshTokenService tokenService.RefreshTokenService
}

// IssueAccess creates a signed access token for the principal.
//
// Issuance is stateless: nothing is persisted, and the token is valid until
// its embedded expiry passes. Expiration is set from Config.AccessTokenExpiration.
func (t *tokenUseCase) IssueAccess(
	ctx context.Context,
	principal *principalDomain.Principal,
	roles []string,
) (string, error) {
	return t.accessTokenService.Issue(ctx, principal, roles)
}

// ValidateAccess verifies an access token and returns its claims.
//
// Signature verification happens before any claim is read; a token signed
// with an unknown key, an invalid signature, or an expired token all fail
// with errors that wrap ErrUnauthorized.
func (t *tokenUseCase) ValidateAccess(ctx context.Context, token string) (*tokenDomain.AccessClaims, error) {
	return t.accessTokenService.Validate(ctx, token)
}

// IssueRefresh creates a new opaque refresh token for the principal.
//
// This method:
// 1. Generates a cryptographically secure random token
// 2. Stores the token's SHA-256 hash with expiration from config
// 3. Returns the plain token to the caller (only shown once)
//
// Security Notes:
//   - The plain token is never persisted; only its hash is stored
//   - Token expiration is set from Config.RefreshTokenExpiration
func (t *tokenUseCase) IssueRefresh(
	ctx context.Context,
	principal *principalDomain.Principal,
) (string, error) {
	plainToken, tokenHash, err := t.refreshTokenService.Generate()
	if err != nil {
		return "", err
	}

	token := &tokenDomain.RefreshToken{
		ID:          uuid.Must(uuid.NewV7()),
		TokenHash:   tokenHash,
		PrincipalID: principal.ID,
		ExpiresAt:   time.Now().UTC().Add(t.config.RefreshTokenExpiration),
		RevokedAt:   nil,
		CreatedAt:   time.Now().UTC(),
	}

	if err := t.refreshTokenRepo.Create(ctx, token); err != nil {
		return "", err
	}

	return plainToken, nil
}

// ValidateRefresh validates a plain refresh token and returns the stored record.
//
// This method:
// 1. Hashes the plain token and retrieves the stored record by hash
// 2. Validates the token is not expired
// 3. Validates the token is not revoked
//
// Security Notes:
//   - Returns ErrRefreshTokenInvalid for token not found, expired, or revoked
//     to prevent enumeration attacks and information leakage
//   - All time comparisons use UTC to prevent timezone issues
func (t *tokenUseCase) ValidateRefresh(ctx context.Context, plainToken string) (*tokenDomain.RefreshToken, error) {
	tokenHash := t.refreshTokenService.Hash(plainToken)

	token, err := t.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		// If token not found, return generic error to prevent enumeration
		if errors.Is(err, tokenDomain.ErrRefreshTokenNotFound) {
			return nil, tokenDomain.ErrRefreshTokenInvalid
		}
		return nil, err
	}

	// Check if token is expired
	if token.ExpiresAt.Before(time.Now().UTC()) {
		return nil, tokenDomain.ErrRefreshTokenInvalid
	}

	// Check if token is revoked
	if token.RevokedAt != nil {
		return nil, tokenDomain.ErrRefreshTokenInvalid
	}

	return token, nil
}

// Revoke marks a refresh token as revoked.
//
// Revocation is idempotent: revoking an already-revoked or unknown token
// succeeds. Treating an unknown token as success keeps the response
// indistinguishable from a real revocation, so callers cannot probe which
// tokens exist.
func (t *tokenUseCase) Revoke(ctx context.Context, plainToken string) error {
	tokenHash := t.refreshTokenService.Hash(plainToken)

	token, err := t.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}

	// Already revoked, keep the original timestamp
	if token.RevokedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	token.RevokedAt = &now

	return t.refreshTokenRepo.Update(ctx, token)
}

// DeleteExpired removes refresh tokens whose expiry has passed.
func (t *tokenUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	return t.refreshTokenRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config *config.Config,
	refreshTokenRepo RefreshTokenRepository,
	accessTokenService tokenService.AccessTokenService,
	refreshTokenService tokenService.RefreshTokenService,
) TokenUseCase {
	return &tokenUseCase{
		config:              config,
		refreshTokenRepo:    refreshTokenRepo,
		accessTokenService:  accessTokenService,
		refreshTokenService: refreshTokenService,
	}
}
