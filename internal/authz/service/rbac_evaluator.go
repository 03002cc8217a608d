package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

// rbacEvaluator implements RbacEvaluator over the role assignment and role
// repositories. The role catalog is static per deployment, so roles are
// cached with a bounded TTL; assignments are time-sensitive and always
// resolved from the repository at the evaluation instant.
type rbacEvaluator struct {
	assignmentFinder RoleAssignmentFinder
	roleReader       RoleReader
	roleCache        *expirable.LRU[uuid.UUID, *authzDomain.Role]
	group            singleflight.Group
}

// NewRbacEvaluator creates an RbacEvaluator with a role cache of the given
// size and TTL.
func NewRbacEvaluator(
	assignmentFinder RoleAssignmentFinder,
	roleReader RoleReader,
	cacheSize int,
	cacheTTL time.Duration,
) RbacEvaluator {
	return &rbacEvaluator{
		assignmentFinder: assignmentFinder,
		roleReader:       roleReader,
		roleCache:        expirable.NewLRU[uuid.UUID, *authzDomain.Role](cacheSize, nil, cacheTTL),
	}
}

// CheckPermission resolves the principal's grants and checks the permission.
//
// The evaluation instant is always the caller's: an assignment that expired
// a millisecond before `at` does not count, one starting exactly at `at`
// does. Role names are returned in resolution order, deduplicated, as the
// snapshot for the audit record. A repository or catalog failure is an
// error, never a silent DENY, so callers can distinguish "no grants" from
// "could not resolve grants".
func (e *rbacEvaluator) CheckPermission(
	ctx context.Context,
	principalID uuid.UUID,
	permission string,
	at time.Time,
) (authzDomain.Result, []string, error) {
	assignments, err := e.assignmentFinder.FindValidAt(ctx, principalID, at)
	if err != nil {
		return authzDomain.ResultDeny, nil, err
	}

	result := authzDomain.ResultDeny
	roleNames := make([]string, 0, len(assignments))
	seen := make(map[uuid.UUID]bool, len(assignments))

	for _, assignment := range assignments {
		if seen[assignment.RoleID] {
			continue
		}
		seen[assignment.RoleID] = true

		role, err := e.getRole(ctx, assignment.RoleID)
		if err != nil {
			return authzDomain.ResultDeny, nil, err
		}

		roleNames = append(roleNames, role.Name)
		if role.HasPermission(permission) {
			result = authzDomain.ResultAllow
		}
	}

	return result, roleNames, nil
}

// RoleNamesAt returns the names of the roles granted to the principal at
// the given instant, deduplicated in resolution order. Used for the role
// hint embedded in access tokens.
func (e *rbacEvaluator) RoleNamesAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]string, error) {
	assignments, err := e.assignmentFinder.FindValidAt(ctx, principalID, at)
	if err != nil {
		return nil, err
	}

	roleNames := make([]string, 0, len(assignments))
	seen := make(map[uuid.UUID]bool, len(assignments))

	for _, assignment := range assignments {
		if seen[assignment.RoleID] {
			continue
		}
		seen[assignment.RoleID] = true

		role, err := e.getRole(ctx, assignment.RoleID)
		if err != nil {
			return nil, err
		}
		roleNames = append(roleNames, role.Name)
	}

	return roleNames, nil
}

// getRole returns the cached role or fetches it from the catalog.
// Concurrent fetches for the same role are collapsed into one.
func (e *rbacEvaluator) getRole(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	if role, ok := e.roleCache.Get(roleID); ok {
		return role, nil
	}

	result, err, _ := e.group.Do(roleID.String(), func() (any, error) {
		role, err := e.roleReader.Get(ctx, roleID)
		if err != nil {
			return nil, err
		}
		e.roleCache.Add(roleID, role)
		return role, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*authzDomain.Role), nil
}
