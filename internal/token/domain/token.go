// Package domain defines token domain models.
//
// Access tokens are signed, self-contained, and stateless: verification
// requires only the key identifier embedded in the token header. Refresh
// tokens are the single server-tracked token type, persisted as SHA-256
// hashes so they can be revoked.
package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshToken is a long-lived, revocable token persisted server-side.
// Only the SHA-256 hash of the plain token is ever stored.
type RefreshToken struct {
	ID          uuid.UUID
	TokenHash   string
	PrincipalID uuid.UUID
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// AccessClaims is the claim set carried by access tokens: the registered
// claims plus the principal type and a role-name hint. The hint is advisory
// only; authorization decisions always resolve roles at evaluation time.
type AccessClaims struct {
	jwt.RegisteredClaims
	PrincipalType string   `json:"ptype"`
	Roles         []string `json:"roles,omitempty"`
}

// PrincipalID parses the subject claim as the principal identifier.
func (c *AccessClaims) PrincipalID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
