package domain

import (
	"github.com/wardenauth/warden/internal/errors"
)

// Authorization errors.
var (
	// ErrRoleNotFound indicates a role with the specified ID or name was not found.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")

	// ErrRoleAlreadyExists indicates a role with the same name already exists.
	ErrRoleAlreadyExists = errors.Wrap(errors.ErrConflict, "role already exists")

	// ErrRoleAssignmentNotFound indicates a role assignment was not found.
	ErrRoleAssignmentNotFound = errors.Wrap(errors.ErrNotFound, "role assignment not found")

	// ErrPolicyNotFound indicates a policy with the specified key was not found.
	ErrPolicyNotFound = errors.Wrap(errors.ErrNotFound, "policy not found")

	// ErrPolicyAlreadyExists indicates a policy with the same key already exists.
	ErrPolicyAlreadyExists = errors.Wrap(errors.ErrConflict, "policy already exists")

	// ErrPolicyVersionNotFound indicates a policy version was not found.
	ErrPolicyVersionNotFound = errors.Wrap(errors.ErrNotFound, "policy version not found")

	// ErrPolicyEvaluation indicates a condition document failed to evaluate.
	// Distinct from DENY: callers fail closed and surface an internal error.
	ErrPolicyEvaluation = errors.New("policy evaluation failed")

	// ErrDecisionLogNotFound indicates a decision log entry was not found.
	ErrDecisionLogNotFound = errors.Wrap(errors.ErrNotFound, "decision log not found")

	// ErrDecisionLogSignatureInvalid indicates a stored decision log does not
	// match its signature.
	ErrDecisionLogSignatureInvalid = errors.New("decision log signature invalid")
)
