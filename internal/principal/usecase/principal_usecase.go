// Package usecase implements the principal business logic.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	apperrors "github.com/wardenauth/warden/internal/errors"
	"github.com/wardenauth/warden/internal/principal/domain"
	appValidation "github.com/wardenauth/warden/internal/validation"
)

// UseCase defines the interface for principal business logic operations.
type UseCase interface {
	// Provision creates a new principal. User principals require a password
	// meeting strength requirements; service principals never carry one.
	Provision(ctx context.Context, input domain.ProvisionPrincipalInput) (*domain.Principal, error)

	// GetByID retrieves a principal by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error)

	// GetByEmail retrieves a principal by email.
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)

	// SetEnabled enables or disables a principal. Disabling is the only
	// removal mechanism: rows are never deleted.
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error

	// Unlock clears the lockout state for a principal, resetting
	// failed_attempts and locked_until.
	Unlock(ctx context.Context, id uuid.UUID) error
}

// PrincipalRepository defines principal persistence operations.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *domain.Principal) error
	Update(ctx context.Context, principal *domain.Principal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	UpdateLockState(ctx context.Context, id uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

// PrincipalUseCase handles principal-related business logic.
type PrincipalUseCase struct {
	principalRepo  PrincipalRepository
	passwordHasher *pwdhash.PasswordHasher
}

// NewPrincipalUseCase creates a new PrincipalUseCase.
func NewPrincipalUseCase(principalRepo PrincipalRepository) (UseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &PrincipalUseCase{
		principalRepo:  principalRepo,
		passwordHasher: hasher,
	}, nil
}

// validateProvisionInput validates provisioning input using jellydator/validation.
func (uc *PrincipalUseCase) validateProvisionInput(input domain.ProvisionPrincipalInput) error {
	isUser := input.Type == domain.TypeUser

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Type,
			validation.Required.Error("type is required"),
			validation.In(domain.TypeUser, domain.TypeService).Error("type must be user or service"),
		),
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.When(isUser).Error("email is required for user principals"),
			validation.When(input.Email != "",
				appValidation.Email,
				validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
			),
		),
		validation.Field(&input.Password,
			validation.Required.When(isUser).Error("password is required for user principals"),
			validation.Empty.When(!isUser).Error("service principals cannot have a password"),
			validation.When(isUser,
				validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
				appValidation.PasswordStrength{
					MinLength:      8,
					RequireUpper:   true,
					RequireLower:   true,
					RequireNumber:  true,
					RequireSpecial: true,
				},
			),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Provision creates a new principal.
func (uc *PrincipalUseCase) Provision(
	ctx context.Context,
	input domain.ProvisionPrincipalInput,
) (*domain.Principal, error) {
	if err := uc.validateProvisionInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	principal := &domain.Principal{
		ID:          uuid.Must(uuid.NewV7()),
		Type:        input.Type,
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(strings.ToLower(input.Email)),
		ExternalRef: input.ExternalRef,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if input.Type == domain.TypeUser {
		hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to hash password")
		}
		principal.Password = hashedPassword
	}

	if err := uc.principalRepo.Create(ctx, principal); err != nil {
		return nil, err
	}

	return principal, nil
}

// GetByID retrieves a principal by ID.
func (uc *PrincipalUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	return uc.principalRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a principal by email.
func (uc *PrincipalUseCase) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return uc.principalRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// SetEnabled enables or disables a principal.
func (uc *PrincipalUseCase) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	principal, err := uc.principalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	principal.Enabled = enabled
	principal.UpdatedAt = time.Now().UTC()

	return uc.principalRepo.Update(ctx, principal)
}

// Unlock clears the lockout state for a principal.
func (uc *PrincipalUseCase) Unlock(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.principalRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.principalRepo.UpdateLockState(ctx, id, 0, nil)
}
