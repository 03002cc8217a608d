// Package repository implements authorization persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// PostgreSQLRoleRepository implements Role persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRoleRepository struct {
	db *sql.DB
}

// isPostgreSQLUniqueViolation detects unique constraint violations (SQLSTATE 23505).
func isPostgreSQLUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// Create inserts a new Role into the PostgreSQL database. Permissions are
// stored as a JSON column. Returns ErrRoleAlreadyExists when the role name
// is already taken.
func (p *PostgreSQLRoleRepository) Create(ctx context.Context, role *authzDomain.Role) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `INSERT INTO roles (id, name, permissions, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err = querier.ExecContext(
		ctx,
		query,
		role.ID,
		role.Name,
		permissionsJSON,
		role.CreatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return authzDomain.ErrRoleAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// Get retrieves a Role by ID. Returns ErrRoleNotFound if the role doesn't exist.
func (p *PostgreSQLRoleRepository) Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, created_at
			  FROM roles WHERE id = $1`

	return scanPostgreSQLRole(querier.QueryRowContext(ctx, query, roleID))
}

// GetByName retrieves a Role by name. Returns ErrRoleNotFound if the role doesn't exist.
func (p *PostgreSQLRoleRepository) GetByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, created_at
			  FROM roles WHERE name = $1`

	return scanPostgreSQLRole(querier.QueryRowContext(ctx, query, name))
}

// List retrieves all roles ordered by name. Returns an empty slice when no
// roles exist. The role catalog is expected to stay small enough to list
// without pagination.
func (p *PostgreSQLRoleRepository) List(ctx context.Context) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, created_at
			  FROM roles ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list roles")
	}
	defer func() {
		_ = rows.Close()
	}()

	roles := make([]*authzDomain.Role, 0)
	for rows.Next() {
		var role authzDomain.Role
		var permissionsJSON []byte

		err := rows.Scan(&role.ID, &role.Name, &permissionsJSON, &role.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role")
		}

		if err := json.Unmarshal(permissionsJSON, &role.Permissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
		}

		roles = append(roles, &role)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate roles")
	}

	return roles, nil
}

func scanPostgreSQLRole(row *sql.Row) (*authzDomain.Role, error) {
	var role authzDomain.Role
	var permissionsJSON []byte

	err := row.Scan(&role.ID, &role.Name, &permissionsJSON, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	if err := json.Unmarshal(permissionsJSON, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}

	return &role, nil
}

// NewPostgreSQLRoleRepository creates a new PostgreSQL Role repository.
func NewPostgreSQLRoleRepository(db *sql.DB) *PostgreSQLRoleRepository {
	return &PostgreSQLRoleRepository{db: db}
}
