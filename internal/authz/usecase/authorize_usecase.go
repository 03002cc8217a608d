package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	apperrors "github.com/wardenauth/warden/internal/errors"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	appValidation "github.com/wardenauth/warden/internal/validation"
)

// authorizeUseCase implements AuthorizeUseCase, the decision engine entry
// point. It combines role-based permission checks with the active
// attribute-based policy under deny-override semantics, and records a
// signed decision log entry for every check.
type authorizeUseCase struct {
	principalReader PrincipalReader
	rbacEvaluator   authzService.RbacEvaluator
	abacEvaluator   authzService.AbacEvaluator
	auditRecorder   authzService.AuditRecorder
}

// validateAuthorizeInput validates access check input using jellydator/validation.
func validateAuthorizeInput(input *authzDomain.AuthorizeInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.PrincipalID,
			validation.Required.Error("principal_id is required"),
		),
		validation.Field(&input.Action,
			validation.Required.Error("action is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("action must be between 1 and 255 characters"),
		),
		validation.Field(&input.ResourceType,
			validation.Length(0, 255).Error("resource_type must be at most 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Authorize evaluates an access check and records the decision.
//
// Outcome semantics:
//   - An unknown or disabled principal is an ordinary DENY, not an error,
//     so callers cannot probe which principals exist.
//   - Evaluator or repository failures return an error and the check fails
//     closed; the failure itself is still recorded in the decision log.
//   - The decision log entry is enqueued before returning, so the returned
//     AuditID always resolves once the recorder drains.
func (a *authorizeUseCase) Authorize(
	ctx context.Context,
	input *authzDomain.AuthorizeInput,
) (*authzDomain.AuthorizeOutput, error) {
	if err := validateAuthorizeInput(input); err != nil {
		return nil, err
	}

	// The decision log columns store microseconds, and the timestamp is
	// part of the signed canonical form. Truncate up front so the signed
	// timestamp round-trips through storage unchanged.
	at := time.Now().UTC().Truncate(time.Microsecond)
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV7()).String()
	}

	// Resolve the principal. Absence and disablement both deny without
	// leaking which case occurred.
	principal, err := a.principalReader.GetByID(ctx, input.PrincipalID)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return a.deny(input, requestID, nil, at, map[string]any{"reason": "unknown principal"}), nil
		}
		a.recordFailure(input, requestID, nil, at, err)
		return nil, err
	}
	if !principal.Enabled {
		return a.deny(input, requestID, nil, at, map[string]any{"reason": "principal disabled"}), nil
	}

	permission := input.Action
	if input.ResourceType != "" {
		permission = input.ResourceType + ":" + input.Action
	}

	rbacResult, roles, err := a.rbacEvaluator.CheckPermission(ctx, input.PrincipalID, permission, at)
	if err != nil {
		a.recordFailure(input, requestID, roles, at, err)
		return nil, err
	}

	attrs := buildAttributes(input, principal)

	// The policy key mirrors the permission: the resource-scoped key wins,
	// the bare action key is the fallback.
	abacResult, evaluated, err := a.abacEvaluator.CheckPolicy(ctx, permission, attrs)
	if err != nil {
		a.recordFailure(input, requestID, roles, at, err)
		return nil, err
	}
	if !evaluated && permission != input.Action {
		abacResult, evaluated, err = a.abacEvaluator.CheckPolicy(ctx, input.Action, attrs)
		if err != nil {
			a.recordFailure(input, requestID, roles, at, err)
			return nil, err
		}
	}

	var abacApplied *authzDomain.AbacResult
	combined := authzDomain.AbacNotApplicable
	if evaluated {
		abacApplied = &abacResult
		combined = abacResult
	}

	final := authzDomain.CombineDecision(rbacResult, combined)

	entry := &authzDomain.DecisionLog{
		ID:            uuid.Must(uuid.NewV7()),
		RequestID:     requestID,
		PrincipalID:   input.PrincipalID,
		Roles:         roles,
		Action:        input.Action,
		ResourceType:  input.ResourceType,
		ResourceID:    input.ResourceID,
		RbacResult:    rbacResult,
		AbacResult:    abacApplied,
		FinalDecision: final,
		Metadata:      input.Attributes,
		CreatedAt:     at,
	}
	a.auditRecorder.Record(entry)

	return &authzDomain.AuthorizeOutput{
		Decision:  final,
		AuditID:   entry.ID,
		RequestID: requestID,
	}, nil
}

// buildAttributes merges caller-supplied attributes with the well-known
// attributes derived from the request. Derived attributes overwrite caller
// values so callers cannot spoof the request context.
func buildAttributes(input *authzDomain.AuthorizeInput, principal *principalDomain.Principal) map[string]any {
	attrs := make(map[string]any, len(input.Attributes)+5)
	for k, v := range input.Attributes {
		attrs[k] = v
	}

	attrs["principal.id"] = principal.ID.String()
	attrs["principal.type"] = string(principal.Type)
	attrs["request.action"] = input.Action
	if input.ResourceType != "" {
		attrs["resource.type"] = input.ResourceType
	}
	if input.ResourceID != "" {
		attrs["resource.id"] = input.ResourceID
	}

	return attrs
}

// deny records a DENY decision that was reached without running the
// evaluators and returns the corresponding output.
func (a *authorizeUseCase) deny(
	input *authzDomain.AuthorizeInput,
	requestID string,
	roles []string,
	at time.Time,
	metadata map[string]any,
) *authzDomain.AuthorizeOutput {
	entry := &authzDomain.DecisionLog{
		ID:            uuid.Must(uuid.NewV7()),
		RequestID:     requestID,
		PrincipalID:   input.PrincipalID,
		Roles:         roles,
		Action:        input.Action,
		ResourceType:  input.ResourceType,
		ResourceID:    input.ResourceID,
		RbacResult:    authzDomain.ResultDeny,
		FinalDecision: authzDomain.ResultDeny,
		Metadata:      metadata,
		CreatedAt:     at,
	}
	a.auditRecorder.Record(entry)

	return &authzDomain.AuthorizeOutput{
		Decision:  authzDomain.ResultDeny,
		AuditID:   entry.ID,
		RequestID: requestID,
	}
}

// recordFailure records a DENY entry for a check that failed closed, with
// the failure preserved in the entry metadata.
func (a *authorizeUseCase) recordFailure(
	input *authzDomain.AuthorizeInput,
	requestID string,
	roles []string,
	at time.Time,
	cause error,
) {
	a.deny(input, requestID, roles, at, map[string]any{"error": cause.Error()})
}

// NewAuthorizeUseCase creates a new AuthorizeUseCase with the provided dependencies.
func NewAuthorizeUseCase(
	principalReader PrincipalReader,
	rbacEvaluator authzService.RbacEvaluator,
	abacEvaluator authzService.AbacEvaluator,
	auditRecorder authzService.AuditRecorder,
) AuthorizeUseCase {
	return &authorizeUseCase{
		principalReader: principalReader,
		rbacEvaluator:   rbacEvaluator,
		abacEvaluator:   abacEvaluator,
		auditRecorder:   auditRecorder,
	}
}
