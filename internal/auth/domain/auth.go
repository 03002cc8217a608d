// Package domain defines the authentication facade's domain types.
//
// The facade sits in front of the principal, token and authorization areas
// and exposes the operations a caller-facing API needs: signing in, refreshing
// and revoking sessions, and resolving the current identity.
package domain

import (
	"time"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"

	"github.com/wardenauth/warden/internal/errors"
)

// SignInInput contains the credentials presented on sign-in.
type SignInInput struct {
	Email      string
	Password   string
	RememberMe bool // when set, a refresh token is issued alongside the access token
}

// SignInOutput is the result of a successful sign-in. RefreshToken is empty
// unless the sign-in requested one.
type SignInOutput struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	Principal            *principalDomain.Principal
}

// RefreshOutput is the result of exchanging a refresh token for a new access
// token. The refresh token itself is not rotated.
type RefreshOutput struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

// Domain-specific errors for authentication operations.
var (
	// ErrInvalidCredentials covers unknown email, wrong password and disabled
	// principals alike, so responses never reveal which one it was.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
)
