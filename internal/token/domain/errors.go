package domain

import (
	"github.com/wardenauth/warden/internal/errors"
)

// Token validation failures carry distinct reasons for telemetry, but all of
// them wrap ErrUnauthorized so the API surface collapses them into a single
// unauthenticated outcome.
var (
	// ErrTokenMalformed indicates the token could not be parsed at all.
	ErrTokenMalformed = errors.Wrap(errors.ErrUnauthorized, "token malformed")

	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrTokenSignatureInvalid indicates the signature did not verify.
	ErrTokenSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "token signature invalid")

	// ErrTokenUnknownKey indicates the token references a key ID the key
	// store does not hold.
	ErrTokenUnknownKey = errors.Wrap(errors.ErrUnauthorized, "token references unknown key")

	// ErrRefreshTokenNotFound indicates no stored refresh token matches.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrRefreshTokenInvalid indicates the refresh token is expired or revoked.
	ErrRefreshTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "refresh token invalid")
)
