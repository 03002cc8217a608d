// Package usecase implements business logic orchestration for authorization operations.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	apperrors "github.com/wardenauth/warden/internal/errors"
	appValidation "github.com/wardenauth/warden/internal/validation"
)

// roleUseCase implements RoleUseCase for managing roles and role assignments.
type roleUseCase struct {
	roleRepo        RoleRepository
	assignmentRepo  RoleAssignmentRepository
	principalReader PrincipalReader
}

// validateCreateRoleInput validates role creation input using jellydator/validation.
func validateCreateRoleInput(input *authzDomain.CreateRoleInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Permissions,
			validation.Required.Error("at least one permission is required"),
			validation.Each(
				validation.Required.Error("permission cannot be empty"),
				appValidation.NotBlank,
				validation.Length(1, 255).Error("permission must be between 1 and 255 characters"),
			),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateRole creates a new role with a unique name and a set of permission
// strings. Permission strings are opaque to the engine; matching at check
// time is exact and case-sensitive.
func (r *roleUseCase) CreateRole(
	ctx context.Context,
	input *authzDomain.CreateRoleInput,
) (*authzDomain.Role, error) {
	if err := validateCreateRoleInput(input); err != nil {
		return nil, err
	}

	role := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        strings.TrimSpace(input.Name),
		Permissions: input.Permissions,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

// GetRole retrieves a role by ID.
func (r *roleUseCase) GetRole(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	return r.roleRepo.Get(ctx, roleID)
}

// GetRoleByName retrieves a role by its unique name.
func (r *roleUseCase) GetRoleByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	return r.roleRepo.GetByName(ctx, strings.TrimSpace(name))
}

// ListRoles retrieves all roles ordered by name.
func (r *roleUseCase) ListRoles(ctx context.Context) ([]*authzDomain.Role, error) {
	return r.roleRepo.List(ctx)
}

// AssignRole grants a role to a principal, optionally bounded in time.
// Both the role and the principal must exist; the validity window, when
// both boundaries are set, must be ordered.
func (r *roleUseCase) AssignRole(
	ctx context.Context,
	input *authzDomain.AssignRoleInput,
) (*authzDomain.RoleAssignment, error) {
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "valid_until cannot precede valid_from")
	}

	if _, err := r.roleRepo.Get(ctx, input.RoleID); err != nil {
		return nil, err
	}

	if _, err := r.principalReader.GetByID(ctx, input.PrincipalID); err != nil {
		return nil, err
	}

	assignment := &authzDomain.RoleAssignment{
		ID:          uuid.Must(uuid.NewV7()),
		PrincipalID: input.PrincipalID,
		RoleID:      input.RoleID,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// EndAssignment closes a grant's validity window at the given instant, or
// now when nil. The assignment row is preserved so past decisions remain
// explainable.
func (r *roleUseCase) EndAssignment(ctx context.Context, assignmentID uuid.UUID, at *time.Time) error {
	assignment, err := r.assignmentRepo.Get(ctx, assignmentID)
	if err != nil {
		return err
	}

	endAt := time.Now().UTC()
	if at != nil {
		endAt = at.UTC()
	}

	if assignment.ValidFrom != nil && endAt.Before(*assignment.ValidFrom) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "assignment cannot end before it begins")
	}

	assignment.ValidUntil = &endAt

	return r.assignmentRepo.Update(ctx, assignment)
}

// NewRoleUseCase creates a new RoleUseCase with the provided dependencies.
func NewRoleUseCase(
	roleRepo RoleRepository,
	assignmentRepo RoleAssignmentRepository,
	principalReader PrincipalReader,
) RoleUseCase {
	return &roleUseCase{
		roleRepo:        roleRepo,
		assignmentRepo:  assignmentRepo,
		principalReader: principalReader,
	}
}
