// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// ProvisionPrincipalRequest contains the parameters for provisioning a principal.
type ProvisionPrincipalRequest struct {
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	ExternalRef *string `json:"external_ref"`
}

// Validate checks if the provision request is valid. Password strength and
// the user/service field rules are enforced by the use case.
func (r *ProvisionPrincipalRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type,
			validation.Required,
			validation.In(
				string(principalDomain.TypeUser),
				string(principalDomain.TypeService),
			).Error("must be user or service"),
		),
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// SetEnabledRequest contains the target enabled state for a principal.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// Validate checks if the set-enabled request is valid.
func (r *SetEnabledRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Enabled,
			validation.NotNil.Error("enabled is required"),
		),
	)
}
