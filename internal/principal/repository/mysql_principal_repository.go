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

// MySQLPrincipalRepository handles principal persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// NewMySQLPrincipalRepository creates a new MySQLPrincipalRepository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}

// Create inserts a new principal using BINARY(16) for UUIDs.
func (r *MySQLPrincipalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO principals
			  (id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := principal.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
		if isMySQLDuplicateEntry(err) {
			return domain.ErrPrincipalAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create principal")
	}
	return nil
}

// Update modifies an existing principal.
func (r *MySQLPrincipalRepository) Update(ctx context.Context, principal *domain.Principal) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE principals
			  SET name = ?,
				  email = ?,
				  password = ?,
				  external_ref = ?,
				  enabled = ?,
				  failed_attempts = ?,
				  locked_until = ?,
				  updated_at = ?
			  WHERE id = ?`

	id, err := principal.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	_, err = querier.ExecContext(
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
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal")
	}
	return nil
}

// GetByID retrieves a principal by ID.
func (r *MySQLPrincipalRepository) GetByID(ctx context.Context, principalID uuid.UUID) (*domain.Principal, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at
			  FROM principals WHERE id = ?`

	id, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	return r.scanPrincipal(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a principal by email.
func (r *MySQLPrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, type, name, email, password, external_ref, enabled, failed_attempts, locked_until, created_at, updated_at
			  FROM principals WHERE email = ?`

	return r.scanPrincipal(querier.QueryRowContext(ctx, query, email))
}

// scanPrincipal maps a row to a Principal, decoding the BINARY(16) UUID.
// UpdateLockState updates the lockout counters for a principal without
// touching the rest of the row.
func (r *MySQLPrincipalRepository) UpdateLockState(
	ctx context.Context,
	principalID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `UPDATE principals SET failed_attempts = ?, locked_until = ? WHERE id = ?`
	_, err = querier.ExecContext(ctx, query, failedAttempts, lockedUntil, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal lock state")
	}
	return nil
}

func (r *MySQLPrincipalRepository) scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var principal domain.Principal
	var idBytes []byte
	var principalType string

	err := row.Scan(
		&idBytes,
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

	if err := principal.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}

	principal.Type = domain.PrincipalType(principalType)
	return &principal, nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation.
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}
