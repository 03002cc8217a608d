package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

func TestRunAssignRole(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	principalID := uuid.Must(uuid.NewV7())
	role := &authzDomain.Role{
		ID:   uuid.Must(uuid.NewV7()),
		Name: "auditor",
	}

	t.Run("open-ended-grant", func(t *testing.T) {
		mockUseCase := &mockRoleUseCase{}
		mockUseCase.On("GetRoleByName", ctx, "auditor").Return(role, nil)
		mockUseCase.On("AssignRole", ctx, mock.MatchedBy(func(input *authzDomain.AssignRoleInput) bool {
			return input.PrincipalID == principalID &&
				input.RoleID == role.ID &&
				input.ValidFrom == nil &&
				input.ValidUntil == nil
		})).Return(&authzDomain.RoleAssignment{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principalID,
			RoleID:      role.ID,
		}, nil)

		var out bytes.Buffer
		err := RunAssignRole(ctx, mockUseCase, logger, &out, principalID.String(), "auditor", "", "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Role assigned successfully")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("time-bounded-grant", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

		mockUseCase := &mockRoleUseCase{}
		mockUseCase.On("GetRoleByName", ctx, "auditor").Return(role, nil)
		mockUseCase.On("AssignRole", ctx, mock.MatchedBy(func(input *authzDomain.AssignRoleInput) bool {
			return input.ValidFrom != nil && input.ValidFrom.Equal(from) &&
				input.ValidUntil != nil && input.ValidUntil.Equal(until)
		})).Return(&authzDomain.RoleAssignment{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principalID,
			RoleID:      role.ID,
			ValidFrom:   &from,
			ValidUntil:  &until,
		}, nil)

		var out bytes.Buffer
		err := RunAssignRole(ctx, mockUseCase, logger, &out, principalID.String(), "auditor", "2026-01-01", "2026-06-30", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Valid from:    2026-01-01 00:00:00")
		require.Contains(t, out.String(), "Valid until:   2026-06-30 00:00:00")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-principal-id", func(t *testing.T) {
		mockUseCase := &mockRoleUseCase{}
		err := RunAssignRole(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "auditor", "", "", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid principal ID")
	})

	t.Run("unknown-role", func(t *testing.T) {
		mockUseCase := &mockRoleUseCase{}
		mockUseCase.On("GetRoleByName", ctx, "ghost").Return(nil, errors.New("role not found"))

		err := RunAssignRole(ctx, mockUseCase, logger, &bytes.Buffer{}, principalID.String(), "ghost", "", "", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), `failed to find role "ghost"`)
	})

	t.Run("invalid-valid-from", func(t *testing.T) {
		mockUseCase := &mockRoleUseCase{}
		mockUseCase.On("GetRoleByName", ctx, "auditor").Return(role, nil)

		err := RunAssignRole(ctx, mockUseCase, logger, &bytes.Buffer{}, principalID.String(), "auditor", "01/01/2026", "", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid valid-from date")
		mockUseCase.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything)
	})
}
