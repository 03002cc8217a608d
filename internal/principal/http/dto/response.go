// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
)

// PrincipalResponse represents a principal in API responses. The password
// hash never leaves the server.
type PrincipalResponse struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	ExternalRef    *string    `json:"external_ref,omitempty"`
	Enabled        bool       `json:"enabled"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// MapPrincipalToResponse converts a domain principal to an API response.
func MapPrincipalToResponse(principal *principalDomain.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:             principal.ID.String(),
		Type:           string(principal.Type),
		Name:           principal.Name,
		Email:          principal.Email,
		ExternalRef:    principal.ExternalRef,
		Enabled:        principal.Enabled,
		FailedAttempts: principal.FailedAttempts,
		LockedUntil:    principal.LockedUntil,
		CreatedAt:      principal.CreatedAt,
		UpdatedAt:      principal.UpdatedAt,
	}
}
