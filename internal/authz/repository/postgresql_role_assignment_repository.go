package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// PostgreSQLRoleAssignmentRepository implements RoleAssignment persistence
// for PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx().
type PostgreSQLRoleAssignmentRepository struct {
	db *sql.DB
}

// Create inserts a new RoleAssignment into the PostgreSQL database.
func (p *PostgreSQLRoleAssignmentRepository) Create(ctx context.Context, assignment *authzDomain.RoleAssignment) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO role_assignments (id, principal_id, role_id, valid_from, valid_until, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		assignment.ID,
		assignment.PrincipalID,
		assignment.RoleID,
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
func (p *PostgreSQLRoleAssignmentRepository) Update(ctx context.Context, assignment *authzDomain.RoleAssignment) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE role_assignments
			  SET principal_id = $1,
			  	  role_id = $2,
				  valid_from = $3,
				  valid_until = $4,
				  created_at = $5
			  WHERE id = $6`

	_, err := querier.ExecContext(
		ctx,
		query,
		assignment.PrincipalID,
		assignment.RoleID,
		assignment.ValidFrom,
		assignment.ValidUntil,
		assignment.CreatedAt,
		assignment.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update role assignment")
	}

	return nil
}

// Get retrieves a RoleAssignment by ID. Returns ErrRoleAssignmentNotFound
// if the assignment doesn't exist.
func (p *PostgreSQLRoleAssignmentRepository) Get(ctx context.Context, assignmentID uuid.UUID) (*authzDomain.RoleAssignment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments WHERE id = $1`

	var assignment authzDomain.RoleAssignment

	err := querier.QueryRowContext(ctx, query, assignmentID).Scan(
		&assignment.ID,
		&assignment.PrincipalID,
		&assignment.RoleID,
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

	return &assignment, nil
}

// FindValidAt retrieves the assignments in force for a principal at the
// given instant. Boundary instants are included on both sides.
func (p *PostgreSQLRoleAssignmentRepository) FindValidAt(
	ctx context.Context,
	principalID uuid.UUID,
	at time.Time,
) ([]*authzDomain.RoleAssignment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments
			  WHERE principal_id = $1
			    AND (valid_from IS NULL OR valid_from <= $2)
			    AND (valid_until IS NULL OR valid_until >= $2)`

	rows, err := querier.QueryContext(ctx, query, principalID, at)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find valid role assignments")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanPostgreSQLRoleAssignments(rows)
}

// FindValidAtBatch retrieves the assignments in force for a set of
// principals at the given instant in a single query, keyed by principal.
// Principals without valid assignments are absent from the result map.
func (p *PostgreSQLRoleAssignmentRepository) FindValidAtBatch(
	ctx context.Context,
	principalIDs []uuid.UUID,
	at time.Time,
) (map[uuid.UUID][]*authzDomain.RoleAssignment, error) {
	result := make(map[uuid.UUID][]*authzDomain.RoleAssignment)
	if len(principalIDs) == 0 {
		return result, nil
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal_id, role_id, valid_from, valid_until, created_at
			  FROM role_assignments
			  WHERE principal_id = ANY($1)
			    AND (valid_from IS NULL OR valid_from <= $2)
			    AND (valid_until IS NULL OR valid_until >= $2)`

	rows, err := querier.QueryContext(ctx, query, pq.Array(principalIDs), at)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find valid role assignments")
	}
	defer func() {
		_ = rows.Close()
	}()

	assignments, err := scanPostgreSQLRoleAssignments(rows)
	if err != nil {
		return nil, err
	}

	for _, assignment := range assignments {
		result[assignment.PrincipalID] = append(result[assignment.PrincipalID], assignment)
	}

	return result, nil
}

func scanPostgreSQLRoleAssignments(rows *sql.Rows) ([]*authzDomain.RoleAssignment, error) {
	assignments := make([]*authzDomain.RoleAssignment, 0)
	for rows.Next() {
		var assignment authzDomain.RoleAssignment

		err := rows.Scan(
			&assignment.ID,
			&assignment.PrincipalID,
			&assignment.RoleID,
			&assignment.ValidFrom,
			&assignment.ValidUntil,
			&assignment.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role assignment")
		}

		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate role assignments")
	}

	return assignments, nil
}

// NewPostgreSQLRoleAssignmentRepository creates a new PostgreSQL RoleAssignment repository.
func NewPostgreSQLRoleAssignmentRepository(db *sql.DB) *PostgreSQLRoleAssignmentRepository {
	return &PostgreSQLRoleAssignmentRepository{db: db}
}
