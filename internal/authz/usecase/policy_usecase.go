package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
	appValidation "github.com/wardenauth/warden/internal/validation"
)

// policyUseCase implements PolicyUseCase for managing versioned ABAC policies.
type policyUseCase struct {
	txManager     database.TxManager
	policyRepo    PolicyRepository
	abacEvaluator authzService.AbacEvaluator
}

// validateCreatePolicyInput validates policy creation input using jellydator/validation.
func validateCreatePolicyInput(input *authzDomain.CreatePolicyInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Key,
			validation.Required.Error("key is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("key must be between 1 and 255 characters"),
		),
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreatePolicy creates a new policy container with a unique key. The policy
// carries no behavior until a version is created and activated.
func (p *policyUseCase) CreatePolicy(
	ctx context.Context,
	input *authzDomain.CreatePolicyInput,
) (*authzDomain.AbacPolicy, error) {
	if err := validateCreatePolicyInput(input); err != nil {
		return nil, err
	}

	policy := &authzDomain.AbacPolicy{
		ID:        uuid.Must(uuid.NewV7()),
		Key:       strings.TrimSpace(input.Key),
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: time.Now().UTC(),
	}

	if err := p.policyRepo.CreatePolicy(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}

// GetPolicyByKey retrieves a policy by its unique key.
func (p *policyUseCase) GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	return p.policyRepo.GetPolicyByKey(ctx, key)
}

// ListPolicies retrieves all policies ordered by key.
func (p *policyUseCase) ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error) {
	return p.policyRepo.ListPolicies(ctx)
}

// CreateVersion appends a new immutable version to a policy. The policy row
// is locked while the version number is assigned, so concurrent writers
// cannot allocate the same number. New versions always start inactive.
func (p *policyUseCase) CreateVersion(
	ctx context.Context,
	input *authzDomain.CreatePolicyVersionInput,
) (*authzDomain.AbacPolicyVersion, error) {
	if !input.Effect.IsValid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "effect must be ALLOW or DENY")
	}
	if input.Condition == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "condition is required")
	}
	if err := input.Condition.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	var version *authzDomain.AbacPolicyVersion

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		policy, err := p.policyRepo.GetPolicyByKeyForUpdate(ctx, input.PolicyKey)
		if err != nil {
			return err
		}

		maxVersion, err := p.policyRepo.MaxVersion(ctx, policy.ID)
		if err != nil {
			return err
		}

		version = &authzDomain.AbacPolicyVersion{
			ID:        uuid.Must(uuid.NewV7()),
			PolicyID:  policy.ID,
			Version:   maxVersion + 1,
			Effect:    input.Effect,
			Condition: input.Condition,
			IsActive:  false,
			CreatedAt: time.Now().UTC(),
			CreatedBy: input.CreatedBy,
		}

		return p.policyRepo.CreateVersion(ctx, version)
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// ListVersions retrieves all versions of a policy ordered by version descending.
func (p *policyUseCase) ListVersions(ctx context.Context, policyKey string) ([]*authzDomain.AbacPolicyVersion, error) {
	policy, err := p.policyRepo.GetPolicyByKey(ctx, policyKey)
	if err != nil {
		return nil, err
	}

	return p.policyRepo.ListVersions(ctx, policy.ID)
}

// ActivateVersion makes the given version the single active one for its
// policy. The policy row is locked for the whole transaction, so concurrent
// activations of the same policy serialize and checks never observe two
// active versions. The evaluator cache entry is invalidated after commit so
// the new version takes effect immediately.
func (p *policyUseCase) ActivateVersion(ctx context.Context, policyKey string, versionNumber int) error {
	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		policy, err := p.policyRepo.GetPolicyByKeyForUpdate(ctx, policyKey)
		if err != nil {
			return err
		}

		version, err := p.policyRepo.GetVersion(ctx, policy.ID, versionNumber)
		if err != nil {
			return err
		}

		if err := p.policyRepo.DeactivateVersions(ctx, policy.ID); err != nil {
			return err
		}

		return p.policyRepo.ActivateVersion(ctx, version.ID)
	})
	if err != nil {
		return err
	}

	p.abacEvaluator.Invalidate(policyKey)

	return nil
}

// NewPolicyUseCase creates a new PolicyUseCase with the provided dependencies.
func NewPolicyUseCase(
	txManager database.TxManager,
	policyRepo PolicyRepository,
	abacEvaluator authzService.AbacEvaluator,
) PolicyUseCase {
	return &policyUseCase{
		txManager:     txManager,
		policyRepo:    policyRepo,
		abacEvaluator: abacEvaluator,
	}
}
