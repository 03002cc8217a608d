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

// MySQLRoleRepository implements Role persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLRoleRepository struct {
	db *sql.DB
}

// isMySQLDuplicateEntry detects duplicate key violations (MySQL error 1062).
func isMySQLDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}

// Create inserts a new Role into the MySQL database using BINARY(16) for
// UUIDs and a JSON column for permissions. Returns ErrRoleAlreadyExists
// when the role name is already taken.
func (m *MySQLRoleRepository) Create(ctx context.Context, role *authzDomain.Role) error {
	querier := database.GetTx(ctx, m.db)

	id, err := role.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `INSERT INTO roles (id, name, permissions, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		role.Name,
		permissionsJSON,
		role.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return authzDomain.ErrRoleAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// Get retrieves a Role by ID. Returns ErrRoleNotFound if the role doesn't exist.
func (m *MySQLRoleRepository) Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := roleID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT id, name, permissions, created_at
			  FROM roles WHERE id = ?`

	return scanMySQLRole(querier.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a Role by name. Returns ErrRoleNotFound if the role doesn't exist.
func (m *MySQLRoleRepository) GetByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, permissions, created_at
			  FROM roles WHERE name = ?`

	return scanMySQLRole(querier.QueryRowContext(ctx, query, name))
}

// List retrieves all roles ordered by name. Returns an empty slice when no
// roles exist.
func (m *MySQLRoleRepository) List(ctx context.Context) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

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
		var idBytes, permissionsJSON []byte

		err := rows.Scan(&idBytes, &role.Name, &permissionsJSON, &role.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role")
		}

		if err := role.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal role id")
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

func scanMySQLRole(row *sql.Row) (*authzDomain.Role, error) {
	var role authzDomain.Role
	var idBytes, permissionsJSON []byte

	err := row.Scan(&idBytes, &role.Name, &permissionsJSON, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	if err := role.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}
	if err := json.Unmarshal(permissionsJSON, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}

	return &role, nil
}

// NewMySQLRoleRepository creates a new MySQL Role repository.
func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}
