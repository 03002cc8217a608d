package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
)

// RunCreateRole creates a new role with a comma-separated permission list.
//
// Requirements: Database must be migrated and accessible.
func RunCreateRole(
	ctx context.Context,
	roles authzUseCase.RoleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, permissionsCSV, format string,
) error {
	permissions := parsePermissions(permissionsCSV)
	if len(permissions) == 0 {
		return fmt.Errorf("at least one permission is required")
	}

	logger.Info("creating role",
		slog.String("name", name),
		slog.Int("permissions", len(permissions)),
	)

	role, err := roles.CreateRole(ctx, &authzDomain.CreateRoleInput{
		Name:        name,
		Permissions: permissions,
	})
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"id":          role.ID.String(),
			"name":        role.Name,
			"permissions": role.Permissions,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Role created successfully\n")
		_, _ = fmt.Fprintf(writer, "ID:          %s\n", role.ID)
		_, _ = fmt.Fprintf(writer, "Name:        %s\n", role.Name)
		_, _ = fmt.Fprintf(writer, "Permissions: %s\n", strings.Join(role.Permissions, ", "))
	}

	logger.Info("role created successfully",
		slog.String("role_id", role.ID.String()),
		slog.String("name", name),
	)

	return nil
}

// parsePermissions splits a comma-separated permission list, dropping empty
// entries.
func parsePermissions(csv string) []string {
	parts := strings.Split(csv, ",")
	permissions := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			permissions = append(permissions, trimmed)
		}
	}
	return permissions
}
