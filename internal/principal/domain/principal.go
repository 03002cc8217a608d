// Package domain defines the principal domain entities and types.
//
// A principal is any identity subject to authorization: a human user signing
// in with email and password, or a service account authenticating with
// machine credentials. Principals are soft-disabled, never physically
// deleted, so audit records always resolve to a real identity.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenauth/warden/internal/errors"
)

// PrincipalType distinguishes human users from service accounts.
type PrincipalType string

const (
	// TypeUser is a human user with an email credential.
	TypeUser PrincipalType = "user"

	// TypeService is a machine identity (no interactive sign-in).
	TypeService PrincipalType = "service"
)

// Principal represents an identity subject to authorization.
type Principal struct {
	ID             uuid.UUID
	Type           PrincipalType
	Name           string
	Email          string  // unique, lowercase; empty for service principals
	Password       string  // Argon2id hash, never plaintext
	ExternalRef    *string // optional reference into an external directory
	Enabled        bool    // disabled principals fail authentication immediately
	FailedAttempts int     // consecutive failed sign-in attempts
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLockedAt reports whether the principal is locked out at the given time.
func (p *Principal) IsLockedAt(t time.Time) bool {
	return p.LockedUntil != nil && p.LockedUntil.After(t)
}

// ProvisionPrincipalInput contains the parameters for provisioning a principal.
type ProvisionPrincipalInput struct {
	Type        PrincipalType
	Name        string
	Email       string
	Password    string // required for user principals only
	ExternalRef *string
}

// Domain-specific errors for principal operations.
var (
	// ErrPrincipalNotFound indicates the requested principal does not exist.
	ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")

	// ErrPrincipalAlreadyExists indicates a principal with the same email already exists.
	ErrPrincipalAlreadyExists = errors.Wrap(errors.ErrConflict, "principal already exists")

	// ErrPrincipalDisabled indicates the principal exists but is disabled.
	ErrPrincipalDisabled = errors.Wrap(errors.ErrForbidden, "principal is disabled")

	// ErrPrincipalLocked indicates the principal is locked out after too many
	// failed sign-in attempts.
	ErrPrincipalLocked = errors.Wrap(errors.ErrLocked, "principal is locked")
)
