package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
)

// RunAssignRole grants a role to a principal, optionally bounded by a
// validity window. The role is looked up by name. Dates accept "2006-01-02"
// or "2006-01-02 15:04:05".
//
// Requirements: Database must be migrated and accessible.
func RunAssignRole(
	ctx context.Context,
	roles authzUseCase.RoleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	principalID, roleName, validFrom, validUntil, format string,
) error {
	parsedPrincipalID, err := uuid.Parse(principalID)
	if err != nil {
		return fmt.Errorf("invalid principal ID: %w", err)
	}

	role, err := roles.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to find role %q: %w", roleName, err)
	}

	input := &authzDomain.AssignRoleInput{
		PrincipalID: parsedPrincipalID,
		RoleID:      role.ID,
	}

	if validFrom != "" {
		from, err := parseDate(validFrom)
		if err != nil {
			return fmt.Errorf("invalid valid-from date: %w", err)
		}
		input.ValidFrom = &from
	}

	if validUntil != "" {
		until, err := parseDate(validUntil)
		if err != nil {
			return fmt.Errorf("invalid valid-until date: %w", err)
		}
		input.ValidUntil = &until
	}

	logger.Info("assigning role",
		slog.String("principal_id", principalID),
		slog.String("role", roleName),
	)

	assignment, err := roles.AssignRole(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"id":           assignment.ID.String(),
			"principal_id": assignment.PrincipalID.String(),
			"role_id":      assignment.RoleID.String(),
		}
		if assignment.ValidFrom != nil {
			result["valid_from"] = assignment.ValidFrom
		}
		if assignment.ValidUntil != nil {
			result["valid_until"] = assignment.ValidUntil
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Role assigned successfully\n")
		_, _ = fmt.Fprintf(writer, "Assignment ID: %s\n", assignment.ID)
		_, _ = fmt.Fprintf(writer, "Principal:     %s\n", assignment.PrincipalID)
		_, _ = fmt.Fprintf(writer, "Role:          %s (%s)\n", role.Name, assignment.RoleID)
		if assignment.ValidFrom != nil {
			_, _ = fmt.Fprintf(writer, "Valid from:    %s\n", assignment.ValidFrom.Format("2006-01-02 15:04:05"))
		}
		if assignment.ValidUntil != nil {
			_, _ = fmt.Fprintf(writer, "Valid until:   %s\n", assignment.ValidUntil.Format("2006-01-02 15:04:05"))
		}
	}

	logger.Info("role assigned successfully",
		slog.String("assignment_id", assignment.ID.String()),
		slog.String("role", roleName),
	)

	return nil
}
