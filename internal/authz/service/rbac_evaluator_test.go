package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

// stubAssignmentFinder serves fixed assignments per principal.
type stubAssignmentFinder struct {
	assignments map[uuid.UUID][]*authzDomain.RoleAssignment
	err         error
}

func (s *stubAssignmentFinder) FindValidAt(
	_ context.Context,
	principalID uuid.UUID,
	at time.Time,
) ([]*authzDomain.RoleAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	valid := make([]*authzDomain.RoleAssignment, 0)
	for _, assignment := range s.assignments[principalID] {
		if assignment.IsValidAt(at) {
			valid = append(valid, assignment)
		}
	}
	return valid, nil
}

// countingRoleReader serves fixed roles and counts catalog hits.
type countingRoleReader struct {
	roles map[uuid.UUID]*authzDomain.Role
	gets  atomic.Int64
}

func (s *countingRoleReader) Get(_ context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	s.gets.Add(1)
	role, ok := s.roles[roleID]
	if !ok {
		return nil, authzDomain.ErrRoleNotFound
	}
	return role, nil
}

func TestRbacEvaluator_CheckPermission(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	principalID := uuid.Must(uuid.NewV7())
	editorRole := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"document:read", "document:write"},
	}
	auditorRole := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "auditor",
		Permissions: []string{"document:read"},
	}

	newEvaluator := func(assignments []*authzDomain.RoleAssignment) (RbacEvaluator, *countingRoleReader) {
		finder := &stubAssignmentFinder{
			assignments: map[uuid.UUID][]*authzDomain.RoleAssignment{principalID: assignments},
		}
		reader := &countingRoleReader{
			roles: map[uuid.UUID]*authzDomain.Role{
				editorRole.ID:  editorRole,
				auditorRole.ID: auditorRole,
			},
		}
		return NewRbacEvaluator(finder, reader, 16, time.Minute), reader
	}

	t.Run("Success_PermissionGranted", func(t *testing.T) {
		evaluator, _ := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
		})

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:write", now)
		require.NoError(t, err)
		assert.Equal(t, authzDomain.ResultAllow, result)
		assert.Equal(t, []string{"editor"}, roles)
	})

	t.Run("Success_PermissionMissing", func(t *testing.T) {
		evaluator, _ := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: auditorRole.ID},
		})

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:write", now)
		require.NoError(t, err)
		assert.Equal(t, authzDomain.ResultDeny, result)
		assert.Equal(t, []string{"auditor"}, roles, "role snapshot is returned even on deny")
	})

	t.Run("Success_NoAssignmentsIsDenyNotError", func(t *testing.T) {
		evaluator, _ := newEvaluator(nil)

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:read", now)
		require.NoError(t, err)
		assert.Equal(t, authzDomain.ResultDeny, result)
		assert.Empty(t, roles)
	})

	t.Run("Success_ExpiredAssignmentIgnored", func(t *testing.T) {
		expired := now.Add(-time.Hour)
		evaluator, _ := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID, ValidUntil: &expired},
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: auditorRole.ID},
		})

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:write", now)
		require.NoError(t, err)
		assert.Equal(t, authzDomain.ResultDeny, result)
		assert.Equal(t, []string{"auditor"}, roles)
	})

	t.Run("Success_DuplicateAssignmentsDeduplicated", func(t *testing.T) {
		evaluator, reader := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
		})

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:read", now)
		require.NoError(t, err)
		assert.Equal(t, authzDomain.ResultAllow, result)
		assert.Equal(t, []string{"editor"}, roles)
		assert.Equal(t, int64(1), reader.gets.Load())
	})

	t.Run("Success_RoleCatalogIsCached", func(t *testing.T) {
		evaluator, reader := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
		})

		for i := 0; i < 3; i++ {
			_, _, err := evaluator.CheckPermission(ctx, principalID, "document:read", now)
			require.NoError(t, err)
		}

		assert.Equal(t, int64(1), reader.gets.Load(), "role should be fetched once and cached")
	})

	t.Run("Error_AssignmentLookupFails", func(t *testing.T) {
		finder := &stubAssignmentFinder{err: errors.New("database down")}
		reader := &countingRoleReader{}
		evaluator := NewRbacEvaluator(finder, reader, 16, time.Minute)

		result, roles, err := evaluator.CheckPermission(ctx, principalID, "document:read", now)
		assert.Error(t, err)
		assert.Equal(t, authzDomain.ResultDeny, result)
		assert.Nil(t, roles)
	})

	t.Run("Error_RoleMissingFromCatalog", func(t *testing.T) {
		unknownRoleID := uuid.Must(uuid.NewV7())
		evaluator, _ := newEvaluator([]*authzDomain.RoleAssignment{
			{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: unknownRoleID},
		})

		_, _, err := evaluator.CheckPermission(ctx, principalID, "document:read", now)
		assert.ErrorIs(t, err, authzDomain.ErrRoleNotFound)
	})
}

func TestRbacEvaluator_RoleNamesAt(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	principalID := uuid.Must(uuid.NewV7())
	editorRole := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"document:read"},
	}
	auditorRole := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "auditor",
		Permissions: []string{"document:read"},
	}

	t.Run("Success_ReturnsDeduplicatedNames", func(t *testing.T) {
		finder := &stubAssignmentFinder{
			assignments: map[uuid.UUID][]*authzDomain.RoleAssignment{principalID: {
				{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
				{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: auditorRole.ID},
				{ID: uuid.Must(uuid.NewV7()), PrincipalID: principalID, RoleID: editorRole.ID},
			}},
		}
		reader := &countingRoleReader{
			roles: map[uuid.UUID]*authzDomain.Role{
				editorRole.ID:  editorRole,
				auditorRole.ID: auditorRole,
			},
		}
		evaluator := NewRbacEvaluator(finder, reader, 16, time.Minute)

		names, err := evaluator.RoleNamesAt(ctx, principalID, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"editor", "auditor"}, names)
	})

	t.Run("Success_NoAssignments", func(t *testing.T) {
		finder := &stubAssignmentFinder{assignments: map[uuid.UUID][]*authzDomain.RoleAssignment{}}
		evaluator := NewRbacEvaluator(finder, &countingRoleReader{}, 16, time.Minute)

		names, err := evaluator.RoleNamesAt(ctx, principalID, now)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("Error_FinderFailure", func(t *testing.T) {
		finder := &stubAssignmentFinder{err: errors.New("database down")}
		evaluator := NewRbacEvaluator(finder, &countingRoleReader{}, 16, time.Minute)

		_, err := evaluator.RoleNamesAt(ctx, principalID, now)
		assert.Error(t, err)
	})
}
