package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// MySQLRoleAssignmentRepository implements RoleAssignment persistence for
// MySQL. Uses BINARY(16) for UUIDs with transaction support via
// database.GetTx().
type MySQLRoleAssignmentRepository struct {
	db *sql.DB
}

// Create inserts a new RoleAssignment into the MySQL database using
// BINARY(16) for UUIDs.
func (m *MySQLRoleAssignmentRepository) Create(ctx context.Context, assignment *authzDomain.RoleAssignment) error {
	querier := database.GetTx(ctx, m.db)

	id, err := assignment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role assignment id")
	}

	principalID, err := assignment.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	roleID, err := assignment.RoleID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `INSERT INTO role_assignments (id, principal_id, role_id, valid_from, valid_until, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		principalID,
		roleID,
		assignment.ValidFrom,
		assignment.ValidUntil,
		assignment.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create role assignment")
	}
	return nil
}

// Update modifies an existing RoleAssignment. Assignments are never deleted;
// ending a grant is an update that sets valid_until.
func (m *MySQLRoleAssignmentRepository) Update(ctx context.Context, assignment *authzDomain.RoleAssignment) error {
	querier := database.GetTx(ctx, m.db)

	id, err := assignment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role assignment id")
	}

	principalID, err := assignment.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	roleID, err := assignment.RoleID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `UPDATE role_assignments
			  SET principal_id = ?,
			  	  role_id = ?,
				  valid_from = ?,
				  valid_until = ?,
				  created_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		principalID,
		roleID,
		assignment.ValidFrom,
		assignment.ValidUntil,
		assignment.CreatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update role assignment")
	}

	return nil
}

// Get retrieves a RoleAssignment by ID. Returns ErrRoleAssignmentNotFound
// if the assignment doesn't exist.
func (m *MySQLRoleAssignmentRepository) Get(ctx context.Context, assignmentID uuid.UUID) (*authzDomain.RoleAssignment, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := assignmentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role assignment id")
	}

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments WHERE id = ?`

	var assignment authzDomain.RoleAssignment
	var idBytes, principalIDBytes, roleIDBytes []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&principalIDBytes,
		&roleIDBytes,
		&assignment.ValidFrom,
		&assignment.ValidUntil,
		&assignment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrRoleAssignmentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role assignment")
	}

	if err := unmarshalMySQLRoleAssignmentIDs(&assignment, idBytes, principalIDBytes, roleIDBytes); err != nil {
		return nil, err
	}

	return &assignment, nil
}

// FindValidAt retrieves the assignments in force for a principal at the
// given instant. Boundary instants are included on both sides.
func (m *MySQLRoleAssignmentRepository) FindValidAt(
	ctx context.Context,
	principalID uuid.UUID,
	at time.Time,
) ([]*authzDomain.RoleAssignment, error) {
	querier := database.GetTx(ctx, m.db)

	principalIDBytes, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments
			  WHERE principal_id = ?
			    AND (valid_from IS NULL OR valid_from <= ?)
			    AND (valid_until IS NULL OR valid_until >= ?)`

	rows, err := querier.QueryContext(ctx, query, principalIDBytes, at, at)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find valid role assignments")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanMySQLRoleAssignments(rows)
}

// FindValidAtBatch retrieves the assignments in force for a set of
// principals at the given instant in a single query, keyed by principal.
// Principals without valid assignments are absent from the result map.
func (m *MySQLRoleAssignmentRepository) FindValidAtBatch(
	ctx context.Context,
	principalIDs []uuid.UUID,
	at time.Time,
) (map[uuid.UUID][]*authzDomain.RoleAssignment, error) {
	result := make(map[uuid.UUID][]*authzDomain.RoleAssignment)
	if len(principalIDs) == 0 {
		return result, nil
	}

	querier := database.GetTx(ctx, m.db)

	placeholders := make([]string, 0, len(principalIDs))
	args := make([]any, 0, len(principalIDs)+2)
	for _, principalID := range principalIDs {
		principalIDBytes, err := principalID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal principal id")
		}
		placeholders = append(placeholders, "?")
		args = append(args, principalIDBytes)
	}
	args = append(args, at, at)

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments
			  WHERE principal_id IN (` + strings.Join(placeholders, ", ") + `)
			    AND (valid_from IS NULL OR valid_from <= ?)
			    AND (valid_until IS NULL OR valid_until >= ?)`

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find valid role assignments")
	}
	defer func() {
		_ = rows.Close()
	}()

	assignments, err := scanMySQLRoleAssignments(rows)
	if err != nil {
		return nil, err
	}

	for _, assignment := range assignments {
		result[assignment.PrincipalID] = append(result[assignment.PrincipalID], assignment)
	}

	return result, nil
}

func scanMySQLRoleAssignments(rows *sql.Rows) ([]*authzDomain.RoleAssignment, error) {
	assignments := make([]*authzDomain.RoleAssignment, 0)
	for rows.Next() {
		var assignment authzDomain.RoleAssignment
		var idBytes, principalIDBytes, roleIDBytes []byte

		err := rows.Scan(
			&idBytes,
			&principalIDBytes,
			&roleIDBytes,
			&assignment.ValidFrom,
			&assignment.ValidUntil,
			&assignment.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role assignment")
		}

		if err := unmarshalMySQLRoleAssignmentIDs(&assignment, idBytes, principalIDBytes, roleIDBytes); err != nil {
			return nil, err
		}

		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate role assignments")
	}

	return assignments, nil
}

func unmarshalMySQLRoleAssignmentIDs(assignment *authzDomain.RoleAssignment, id, principalID, roleID []byte) error {
	if err := assignment.ID.UnmarshalBinary(id); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal role assignment id")
	}
	if err := assignment.PrincipalID.UnmarshalBinary(principalID); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal principal id")
	}
	if err := assignment.RoleID.UnmarshalBinary(roleID); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal role id")
	}
	return nil
}

// NewMySQLRoleAssignmentRepository creates a new MySQL RoleAssignment repository.
func NewMySQLRoleAssignmentRepository(db *sql.DB) *MySQLRoleAssignmentRepository {
	return &MySQLRoleAssignmentRepository{db: db}
}
