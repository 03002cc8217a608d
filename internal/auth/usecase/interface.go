// Package usecase defines business logic interfaces for authentication operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/wardenauth/warden/internal/auth/domain"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
)

// PrincipalStore defines the principal operations the authentication facade
// needs: credential lookup and lockout bookkeeping.
type PrincipalStore interface {
	// GetByID retrieves a principal by its identifier.
	// Returns ErrPrincipalNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*principalDomain.Principal, error)

	// GetByEmail retrieves a principal by its lowercase email.
	// Returns ErrPrincipalNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*principalDomain.Principal, error)

	// UpdateLockState persists the failed-attempt counter and lockout deadline.
	// A nil lockedUntil clears any active lockout.
	UpdateLockState(ctx context.Context, id uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

// RoleResolver resolves the role names valid for a principal at an instant.
// Sign-in uses it to embed an advisory role hint in access tokens.
type RoleResolver interface {
	RoleNamesAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]string, error)
}

// AuthUseCase defines the caller-facing authentication operations.
type AuthUseCase interface {
	// SignIn verifies an email/password credential and issues an access token,
	// plus a refresh token when the input requests one. Unknown email, wrong
	// password and disabled principals all return ErrInvalidCredentials;
	// a principal locked out after repeated failures returns
	// ErrPrincipalLocked.
	SignIn(ctx context.Context, input *authDomain.SignInInput) (*authDomain.SignInOutput, error)

	// Refresh exchanges a valid refresh token for a new access token. The
	// refresh token itself stays valid until it expires or is revoked.
	Refresh(ctx context.Context, refreshToken string) (*authDomain.RefreshOutput, error)

	// Revoke invalidates a refresh token. Revoking an already-revoked token
	// is a no-op.
	Revoke(ctx context.Context, refreshToken string) error

	// GetCurrentUser resolves an access token to the principal it was issued
	// for. Any token or principal problem maps to an unauthorized error.
	GetCurrentUser(ctx context.Context, accessToken string) (*principalDomain.Principal, error)

	// Authorize evaluates an access check for an authenticated caller. It
	// delegates to the authorization engine unchanged.
	Authorize(ctx context.Context, input *authzDomain.AuthorizeInput) (*authzDomain.AuthorizeOutput, error)
}
