// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/wardenauth/warden/internal/auth/domain"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
)

// PrincipalResponse represents a principal in API responses. The password
// hash never leaves the server.
type PrincipalResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	ExternalRef *string    `json:"external_ref,omitempty"`
	Enabled     bool       `json:"enabled"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MapPrincipalToResponse converts a domain principal to an API response.
func MapPrincipalToResponse(principal *principalDomain.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:          principal.ID.String(),
		Type:        string(principal.Type),
		Name:        principal.Name,
		Email:       principal.Email,
		ExternalRef: principal.ExternalRef,
		Enabled:     principal.Enabled,
		LockedUntil: principal.LockedUntil,
		CreatedAt:   principal.CreatedAt,
		UpdatedAt:   principal.UpdatedAt,
	}
}

// SignInResponse contains the result of a successful sign-in.
// SECURITY: The refresh token is only returned once and must be saved securely.
type SignInResponse struct {
	AccessToken          string            `json:"access_token"`
	AccessTokenExpiresAt time.Time         `json:"access_token_expires_at"`
	RefreshToken         string            `json:"refresh_token,omitempty"`
	Principal            PrincipalResponse `json:"principal"`
}

// MapSignInToResponse converts a sign-in result to an API response.
func MapSignInToResponse(output *authDomain.SignInOutput) SignInResponse {
	return SignInResponse{
		AccessToken:          output.AccessToken,
		AccessTokenExpiresAt: output.AccessTokenExpiresAt,
		RefreshToken:         output.RefreshToken,
		Principal:            MapPrincipalToResponse(output.Principal),
	}
}

// RefreshResponse contains the result of exchanging a refresh token.
type RefreshResponse struct {
	AccessToken          string    `json:"access_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
}

// AuthorizeResponse contains the outcome of an access check.
type AuthorizeResponse struct {
	Decision  string `json:"decision"`
	AuditID   string `json:"audit_id"`
	RequestID string `json:"request_id"`
}

// MapAuthorizeToResponse converts an access check outcome to an API response.
func MapAuthorizeToResponse(output *authzDomain.AuthorizeOutput) AuthorizeResponse {
	return AuthorizeResponse{
		Decision:  string(output.Decision),
		AuditID:   output.AuditID.String(),
		RequestID: output.RequestID,
	}
}
