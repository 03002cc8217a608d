package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/metrics"
)

// authorizeUseCaseWithMetrics decorates AuthorizeUseCase with metrics instrumentation.
type authorizeUseCaseWithMetrics struct {
	next    AuthorizeUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorizeUseCaseWithMetrics wraps an AuthorizeUseCase with metrics recording.
func NewAuthorizeUseCaseWithMetrics(useCase AuthorizeUseCase, m metrics.BusinessMetrics) AuthorizeUseCase {
	return &authorizeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authorize records metrics for access checks. The decision itself is
// recorded alongside the error status so dashboards can track the
// allow/deny ratio without parsing the decision log.
func (a *authorizeUseCaseWithMetrics) Authorize(
	ctx context.Context,
	input *authzDomain.AuthorizeInput,
) (*authzDomain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.Authorize(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "authz", "authorize", status)
	a.metrics.RecordDuration(ctx, "authz", "authorize", time.Since(start), status)

	if err == nil {
		switch output.Decision {
		case authzDomain.ResultAllow:
			a.metrics.RecordOperation(ctx, "authz", "decision", "allow")
		case authzDomain.ResultDeny:
			a.metrics.RecordOperation(ctx, "authz", "decision", "deny")
		}
	}

	return output, err
}

// roleUseCaseWithMetrics decorates RoleUseCase with metrics instrumentation.
type roleUseCaseWithMetrics struct {
	next    RoleUseCase
	metrics metrics.BusinessMetrics
}

// NewRoleUseCaseWithMetrics wraps a RoleUseCase with metrics recording.
func NewRoleUseCaseWithMetrics(useCase RoleUseCase, m metrics.BusinessMetrics) RoleUseCase {
	return &roleUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (r *roleUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "authz", operation, status)
	r.metrics.RecordDuration(ctx, "authz", operation, time.Since(start), status)
}

// CreateRole records metrics for role creation operations.
func (r *roleUseCaseWithMetrics) CreateRole(
	ctx context.Context,
	input *authzDomain.CreateRoleInput,
) (*authzDomain.Role, error) {
	start := time.Now()
	role, err := r.next.CreateRole(ctx, input)
	r.record(ctx, "role_create", start, err)
	return role, err
}

// GetRole records metrics for role retrieval operations.
func (r *roleUseCaseWithMetrics) GetRole(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	start := time.Now()
	role, err := r.next.GetRole(ctx, roleID)
	r.record(ctx, "role_get", start, err)
	return role, err
}

// GetRoleByName records metrics for role retrieval by name.
func (r *roleUseCaseWithMetrics) GetRoleByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	start := time.Now()
	role, err := r.next.GetRoleByName(ctx, name)
	r.record(ctx, "role_get_by_name", start, err)
	return role, err
}

// ListRoles records metrics for role listing operations.
func (r *roleUseCaseWithMetrics) ListRoles(ctx context.Context) ([]*authzDomain.Role, error) {
	start := time.Now()
	roles, err := r.next.ListRoles(ctx)
	r.record(ctx, "role_list", start, err)
	return roles, err
}

// AssignRole records metrics for role assignment operations.
func (r *roleUseCaseWithMetrics) AssignRole(
	ctx context.Context,
	input *authzDomain.AssignRoleInput,
) (*authzDomain.RoleAssignment, error) {
	start := time.Now()
	assignment, err := r.next.AssignRole(ctx, input)
	r.record(ctx, "role_assign", start, err)
	return assignment, err
}

// EndAssignment records metrics for assignment end operations.
func (r *roleUseCaseWithMetrics) EndAssignment(ctx context.Context, assignmentID uuid.UUID, at *time.Time) error {
	start := time.Now()
	err := r.next.EndAssignment(ctx, assignmentID, at)
	r.record(ctx, "role_assignment_end", start, err)
	return err
}

// policyUseCaseWithMetrics decorates PolicyUseCase with metrics instrumentation.
type policyUseCaseWithMetrics struct {
	next    PolicyUseCase
	metrics metrics.BusinessMetrics
}

// NewPolicyUseCaseWithMetrics wraps a PolicyUseCase with metrics recording.
func NewPolicyUseCaseWithMetrics(useCase PolicyUseCase, m metrics.BusinessMetrics) PolicyUseCase {
	return &policyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (p *policyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "authz", operation, status)
	p.metrics.RecordDuration(ctx, "authz", operation, time.Since(start), status)
}

// CreatePolicy records metrics for policy creation operations.
func (p *policyUseCaseWithMetrics) CreatePolicy(
	ctx context.Context,
	input *authzDomain.CreatePolicyInput,
) (*authzDomain.AbacPolicy, error) {
	start := time.Now()
	policy, err := p.next.CreatePolicy(ctx, input)
	p.record(ctx, "policy_create", start, err)
	return policy, err
}

// GetPolicyByKey records metrics for policy retrieval operations.
func (p *policyUseCaseWithMetrics) GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	start := time.Now()
	policy, err := p.next.GetPolicyByKey(ctx, key)
	p.record(ctx, "policy_get", start, err)
	return policy, err
}

// ListPolicies records metrics for policy listing operations.
func (p *policyUseCaseWithMetrics) ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error) {
	start := time.Now()
	policies, err := p.next.ListPolicies(ctx)
	p.record(ctx, "policy_list", start, err)
	return policies, err
}

// CreateVersion records metrics for policy version creation operations.
func (p *policyUseCaseWithMetrics) CreateVersion(
	ctx context.Context,
	input *authzDomain.CreatePolicyVersionInput,
) (*authzDomain.AbacPolicyVersion, error) {
	start := time.Now()
	version, err := p.next.CreateVersion(ctx, input)
	p.record(ctx, "policy_version_create", start, err)
	return version, err
}

// ListVersions records metrics for policy version listing operations.
func (p *policyUseCaseWithMetrics) ListVersions(
	ctx context.Context,
	policyKey string,
) ([]*authzDomain.AbacPolicyVersion, error) {
	start := time.Now()
	versions, err := p.next.ListVersions(ctx, policyKey)
	p.record(ctx, "policy_version_list", start, err)
	return versions, err
}

// ActivateVersion records metrics for policy version activation operations.
func (p *policyUseCaseWithMetrics) ActivateVersion(ctx context.Context, policyKey string, versionNumber int) error {
	start := time.Now()
	err := p.next.ActivateVersion(ctx, policyKey, versionNumber)
	p.record(ctx, "policy_version_activate", start, err)
	return err
}
