// Package usecase defines business logic interfaces for authorization operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
)

// RoleRepository defines persistence operations for roles.
// Implementations must support transaction-aware operations via context propagation.
type RoleRepository interface {
	// Create stores a new role. Returns ErrRoleAlreadyExists on a duplicate name.
	Create(ctx context.Context, role *authzDomain.Role) error

	// Get retrieves a role by ID. Returns ErrRoleNotFound if not found.
	Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error)

	// GetByName retrieves a role by its unique name.
	GetByName(ctx context.Context, name string) (*authzDomain.Role, error)

	// List retrieves all roles ordered by name.
	List(ctx context.Context) ([]*authzDomain.Role, error)
}

// RoleAssignmentRepository defines persistence operations for role assignments.
// Assignments are never deleted; ending a grant is an update of its validity
// window.
type RoleAssignmentRepository interface {
	Create(ctx context.Context, assignment *authzDomain.RoleAssignment) error

	Update(ctx context.Context, assignment *authzDomain.RoleAssignment) error

	// Get retrieves an assignment by ID. Returns ErrRoleAssignmentNotFound
	// if not found.
	Get(ctx context.Context, assignmentID uuid.UUID) (*authzDomain.RoleAssignment, error)

	// FindValidAt retrieves the assignments in force for a principal at the
	// given instant. Both validity boundaries are inclusive.
	FindValidAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]*authzDomain.RoleAssignment, error)

	// FindValidAtBatch retrieves the assignments in force for a set of
	// principals at the given instant in a single query, keyed by principal.
	FindValidAtBatch(ctx context.Context, principalIDs []uuid.UUID, at time.Time) (map[uuid.UUID][]*authzDomain.RoleAssignment, error)
}

// PolicyRepository defines persistence operations for ABAC policies and
// their versions.
type PolicyRepository interface {
	// CreatePolicy stores a new policy. Returns ErrPolicyAlreadyExists on a
	// duplicate key.
	CreatePolicy(ctx context.Context, policy *authzDomain.AbacPolicy) error

	// GetPolicyByKey retrieves a policy by its unique key.
	GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error)

	// GetPolicyByKeyForUpdate retrieves a policy by its unique key and locks
	// its row until the surrounding transaction ends. Writers that must not
	// interleave, such as version activation, serialize on this lock.
	GetPolicyByKeyForUpdate(ctx context.Context, key string) (*authzDomain.AbacPolicy, error)

	// ListPolicies retrieves all policies ordered by key.
	ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error)

	// CreateVersion stores a new policy version. Versions are immutable once
	// written.
	CreateVersion(ctx context.Context, version *authzDomain.AbacPolicyVersion) error

	// GetVersion retrieves a specific version of a policy by number.
	GetVersion(ctx context.Context, policyID uuid.UUID, versionNumber int) (*authzDomain.AbacPolicyVersion, error)

	// GetActiveVersionByKey retrieves the single active version for a policy
	// key. Returns ErrPolicyVersionNotFound when no version is active.
	GetActiveVersionByKey(ctx context.Context, key string) (*authzDomain.AbacPolicyVersion, error)

	// ListVersions retrieves all versions of a policy ordered by version
	// descending.
	ListVersions(ctx context.Context, policyID uuid.UUID) ([]*authzDomain.AbacPolicyVersion, error)

	// MaxVersion returns the highest version number recorded for a policy,
	// or zero when the policy has no versions.
	MaxVersion(ctx context.Context, policyID uuid.UUID) (int, error)

	// DeactivateVersions clears the active flag on every version of a policy.
	DeactivateVersions(ctx context.Context, policyID uuid.UUID) error

	// ActivateVersion sets the active flag on a single version. Returns
	// ErrPolicyVersionNotFound if the version does not exist.
	ActivateVersion(ctx context.Context, versionID uuid.UUID) error
}

// DecisionLogRepository defines persistence operations for the decision log.
// The log is append-only: no update or delete operations exist.
type DecisionLogRepository interface {
	Create(ctx context.Context, entry *authzDomain.DecisionLog) error

	List(ctx context.Context, input *authzDomain.ListDecisionLogsInput) ([]*authzDomain.DecisionLog, error)
}

// PrincipalReader resolves principals for access checks.
type PrincipalReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*principalDomain.Principal, error)
}

// RoleUseCase defines business logic operations for managing roles and
// time-bounded role assignments.
type RoleUseCase interface {
	// CreateRole creates a new role with a unique name and a set of
	// permission strings.
	CreateRole(ctx context.Context, input *authzDomain.CreateRoleInput) (*authzDomain.Role, error)

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error)

	// GetRoleByName retrieves a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (*authzDomain.Role, error)

	// ListRoles retrieves all roles ordered by name.
	ListRoles(ctx context.Context) ([]*authzDomain.Role, error)

	// AssignRole grants a role to a principal, optionally bounded in time.
	AssignRole(ctx context.Context, input *authzDomain.AssignRoleInput) (*authzDomain.RoleAssignment, error)

	// EndAssignment closes a grant's validity window. A nil instant ends it
	// now. The assignment row itself is preserved for audit history.
	EndAssignment(ctx context.Context, assignmentID uuid.UUID, at *time.Time) error
}

// PolicyUseCase defines business logic operations for managing versioned
// ABAC policies. Policy versions are immutable; changing a policy means
// adding a version and activating it.
type PolicyUseCase interface {
	// CreatePolicy creates a new policy container with a unique key.
	CreatePolicy(ctx context.Context, input *authzDomain.CreatePolicyInput) (*authzDomain.AbacPolicy, error)

	// GetPolicyByKey retrieves a policy by its unique key.
	GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error)

	// ListPolicies retrieves all policies ordered by key.
	ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error)

	// CreateVersion appends a new version to a policy. The version number is
	// assigned sequentially and the version starts inactive.
	CreateVersion(ctx context.Context, input *authzDomain.CreatePolicyVersionInput) (*authzDomain.AbacPolicyVersion, error)

	// ListVersions retrieves all versions of a policy ordered by version
	// descending.
	ListVersions(ctx context.Context, policyKey string) ([]*authzDomain.AbacPolicyVersion, error)

	// ActivateVersion makes the given version the single active one for its
	// policy, atomically deactivating the rest, and invalidates the
	// evaluator cache so the change takes effect immediately.
	ActivateVersion(ctx context.Context, policyKey string, versionNumber int) error
}

// AuthorizeUseCase is the decision engine entry point. Every call records a
// signed decision log entry regardless of outcome.
type AuthorizeUseCase interface {
	// Authorize evaluates an access check: role-based permissions combined
	// with the active attribute-based policy under deny-override semantics.
	// Evaluation failures return an error and the check fails closed.
	Authorize(ctx context.Context, input *authzDomain.AuthorizeInput) (*authzDomain.AuthorizeOutput, error)
}

// DecisionLogUseCase defines read operations over the decision log.
type DecisionLogUseCase interface {
	// List retrieves decision log entries ordered newest first with
	// pagination and optional principal and time filters.
	List(ctx context.Context, input *authzDomain.ListDecisionLogsInput) ([]*authzDomain.DecisionLog, error)

	// Verify sweeps decision log entries matching the filter and re-checks
	// each entry's HMAC signature, reporting the IDs that fail.
	Verify(ctx context.Context, input *authzDomain.ListDecisionLogsInput) (*authzDomain.VerifyDecisionLogsOutput, error)
}
