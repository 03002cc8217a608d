// Package domain defines authorization domain models and decision logic.
//
// Authorization combines two models: RBAC grants permissions through roles
// assigned to principals, with optional validity windows; ABAC evaluates
// attribute conditions against versioned policies. Both results feed a pure
// combination function with deny-override semantics.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is a named set of permissions. Roles are static per deployment and
// safe to cache read-only.
type Role struct {
	ID          uuid.UUID
	Name        string
	Permissions []string // "resource:action" strings
	CreatedAt   time.Time
}

// HasPermission checks exact string membership of a permission.
// Matching is case-sensitive and carries no wildcard semantics.
func (r *Role) HasPermission(permission string) bool {
	return slices.Contains(r.Permissions, permission)
}

// CreateRoleInput carries the fields needed to create a role.
type CreateRoleInput struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// RoleAssignment grants a role to a principal, optionally bounded in time.
// A nil boundary means unbounded on that side. Assignments are never
// deleted; removal is expressed by setting ValidUntil.
type RoleAssignment struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	RoleID      uuid.UUID
	ValidFrom   *time.Time // inclusive; nil = no lower bound
	ValidUntil  *time.Time // inclusive; nil = no upper bound
	CreatedAt   time.Time
}

// IsValidAt reports whether the assignment is in force at the given instant.
// Both boundaries are inclusive: an assignment is valid at exactly ValidFrom
// and at exactly ValidUntil.
func (a *RoleAssignment) IsValidAt(at time.Time) bool {
	if a.ValidFrom != nil && at.Before(*a.ValidFrom) {
		return false
	}
	if a.ValidUntil != nil && at.After(*a.ValidUntil) {
		return false
	}
	return true
}

// AssignRoleInput carries the fields needed to assign a role to a principal.
type AssignRoleInput struct {
	PrincipalID uuid.UUID  `json:"principal_id"`
	RoleID      uuid.UUID  `json:"role_id"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
}
