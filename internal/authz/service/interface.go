// Package service provides the authorization evaluation and audit services.
//
// Evaluators are read-side components: they resolve grants and policies
// through narrow repository interfaces and small TTL caches, and never
// write. The audit recorder is the only writer, decoupled from the decision
// path by a bounded queue.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

// RoleReader is the role catalog access evaluators need.
type RoleReader interface {
	// Get retrieves a role by ID. Returns ErrRoleNotFound if not found.
	Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error)
}

// RoleAssignmentFinder resolves the assignments in force at an instant.
type RoleAssignmentFinder interface {
	// FindValidAt retrieves the assignments valid for a principal at the
	// given instant, boundaries inclusive.
	FindValidAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]*authzDomain.RoleAssignment, error)
}

// ActivePolicyReader resolves the active version of a policy by key.
type ActivePolicyReader interface {
	// GetActiveVersionByKey retrieves the single active version for the
	// policy key. Returns ErrPolicyVersionNotFound when the policy doesn't
	// exist or has no active version.
	GetActiveVersionByKey(ctx context.Context, key string) (*authzDomain.AbacPolicyVersion, error)
}

// DecisionLogWriter persists decision log entries.
type DecisionLogWriter interface {
	Create(ctx context.Context, entry *authzDomain.DecisionLog) error
}

// RbacEvaluator answers role-based permission checks.
type RbacEvaluator interface {
	// CheckPermission resolves the principal's valid role assignments at
	// the given instant and checks exact permission membership. Returns the
	// result plus the role names in force, for the audit record. A
	// principal with no roles is DENY, not an error.
	CheckPermission(ctx context.Context, principalID uuid.UUID, permission string, at time.Time) (authzDomain.Result, []string, error)

	// RoleNamesAt resolves the role names granted to the principal at the
	// given instant without checking any permission.
	RoleNamesAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]string, error)
}

// AbacEvaluator answers attribute-based policy checks.
type AbacEvaluator interface {
	// CheckPolicy evaluates the active version of the policy identified by
	// key against the attribute context. No active policy or an unmet
	// condition yields AbacNotApplicable; a failed evaluation yields
	// ErrPolicyEvaluation, which callers must treat as a closed failure.
	// The evaluated flag reports whether an active policy was actually
	// evaluated, so audit records can distinguish "no policy" from "policy
	// had nothing to say".
	CheckPolicy(ctx context.Context, policyKey string, attrs map[string]any) (result authzDomain.AbacResult, evaluated bool, err error)

	// Invalidate drops the cached active version for the policy key.
	// Called synchronously when a version is activated.
	Invalidate(policyKey string)
}

// AuditSigner signs and verifies decision log entries.
type AuditSigner interface {
	// Sign generates an HMAC-SHA256 signature over the canonical form of
	// the entry.
	Sign(entry *authzDomain.DecisionLog) ([]byte, error)

	// Verify checks the entry's stored signature. Returns
	// ErrDecisionLogSignatureInvalid if tampered or invalid.
	Verify(entry *authzDomain.DecisionLog) error
}

// AuditRecorder persists decision logs off the decision path.
type AuditRecorder interface {
	// Record enqueues an entry for asynchronous persistence. Never blocks:
	// when the queue is full the entry is handed to a direct background
	// write and a backpressure metric is recorded. Entries are never
	// silently dropped.
	Record(entry *authzDomain.DecisionLog)

	// Close drains the queue and stops the writer. Returns the context
	// error if the deadline expires before the drain completes.
	Close(ctx context.Context) error
}
