// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// CreateRoleRequest contains the parameters for creating a role.
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Validate checks if the create role request is valid.
func (r *CreateRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Permissions,
			validation.Required,
			validation.Each(
				customValidation.NotBlank,
				validation.Length(1, 255),
			),
		),
	)
}

// AssignRoleRequest contains the parameters for granting a role to a
// principal. A nil boundary means unbounded on that side.
type AssignRoleRequest struct {
	PrincipalID string     `json:"principal_id"`
	RoleID      string     `json:"role_id"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
}

// Validate checks if the assign role request is valid.
func (r *AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PrincipalID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.RoleID,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// EndAssignmentRequest contains the optional instant at which a grant ends.
// An empty body or a nil instant ends the grant now.
type EndAssignmentRequest struct {
	At *time.Time `json:"at"`
}

// CreatePolicyRequest contains the parameters for creating a policy container.
type CreatePolicyRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Validate checks if the create policy request is valid.
func (r *CreatePolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// CreatePolicyVersionRequest contains the parameters for appending a policy
// version. The version number is assigned server-side.
type CreatePolicyVersionRequest struct {
	Effect    string                 `json:"effect"`
	Condition *authzDomain.Condition `json:"condition"`
}

// Validate checks if the create policy version request is valid. The
// condition tree's structural rules are enforced by the use case.
func (r *CreatePolicyVersionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Effect,
			validation.Required,
			validation.In(
				string(authzDomain.EffectAllow),
				string(authzDomain.EffectDeny),
			).Error("must be ALLOW or DENY"),
		),
		validation.Field(&r.Condition,
			validation.NotNil.Error("condition is required"),
		),
	)
}
