// Package repository provides data persistence implementations for principals.
//
// PostgreSQL uses native UUID types, MySQL uses BINARY(16) types. Both support
// transaction-aware operations via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
	"github.com/wardenauth/warden/internal/principal/domain"
)

// PostgreSQLPrincipalRepository handles principal persistence for PostgreSQL.
type PostgreSQLPrincipalRepository struct {
	db *sql.DB
}

// NewPostgreSQLPrincipalRepository creates a new PostgreSQLPrincipalRepository.
func NewPostgreSQLPrincipalRepository(db *sql.DB) *PostgreSQLPrincipalRepository {
	return &PostgreSQLPrincipalRepository{db: db}
}

// Create inserts a new principal.
func (r *PostgreSQLPrincipalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO principals
			  (id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.ID,
		string(principal.Type),
		principal.Name,
		principal.Email,
		principal.Password,
		principal.ExternalRef,
		principal.Enabled,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.CreatedAt,
		principal.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrPrincipalAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create principal")
	}
	return nil
}

// Update modifies an existing principal. The principal is never deleted:
// disabling sets enabled=false and keeps the row.
func (r *PostgreSQLPrincipalRepository) Update(ctx context.Context, principal *domain.Principal) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE principals
			  SET name = $1,
				  email = $2,
				  password = $3,
				  external_ref = $4,
				  enabled = $5,
				  failed_attempts = $6,
				  locked_until = $7,
				  updated_at = $8
			  WHERE id = $9`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.Name,
		principal.Email,
		principal.Password,
		principal.ExternalRef,
		principal.Enabled,
		principal.FailedAttempts,
		principal.LockedUntil,
		principal.UpdatedAt,
		principal.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal")
	}
	return nil
}

// GetByID retrieves a principal by ID.
func (r *PostgreSQLPrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at
			  FROM principals WHERE id = $1`

	return r.scanPrincipal(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a principal by email.
func (r *PostgreSQLPrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at
			  FROM principals WHERE email = $1`

	return r.scanPrincipal(querier.QueryRowContext(ctx, query, email))
}

// UpdateLockState updates the lockout counters for a principal without
// touching the rest of the row.
func (r *PostgreSQLPrincipalRepository) UpdateLockState(
	ctx context.Context,
	id uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE principals SET failed_attempts = $1, locked_until = $2 WHERE id = $3`
	_, err := querier.ExecContext(ctx, query, failedAttempts, lockedUntil, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal lock state")
	}
	return nil
}

// scanPrincipal maps a row to a Principal, translating sql.ErrNoRows into
// the domain not-found error.
func (r *PostgreSQLPrincipalRepository) scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var principal domain.Principal
	var principalType string

	err := row.Scan(
		&principal.ID,
		&principalType,
		&principal.Name,
		&principal.Email,
		&principal.Password,
		&principal.ExternalRef,
		&principal.Enabled,
		&principal.FailedAttempts,
		&principal.LockedUntil,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal")
	}

	principal.Type = domain.PrincipalType(principalType)
	return &principal, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
