package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

// MySQLRefreshTokenRepository implements RefreshToken persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// Create inserts a new RefreshToken into the MySQL database using BINARY(16) for
// UUIDs. Uses transaction support via database.GetTx(). Returns an error if UUID
// marshaling or database insertion fails.
func (m *MySQLRefreshTokenRepository) Create(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO refresh_tokens (id, token_hash, principal_id, expires_at, revoked_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	principalID, err := token.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		principalID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// Update modifies an existing RefreshToken in the MySQL database using BINARY(16)
// for UUIDs. Uses transaction support via database.GetTx(). Returns an error if UUID
// marshaling or database update fails.
func (m *MySQLRefreshTokenRepository) Update(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE refresh_tokens
			  SET token_hash = ?,
			  	  principal_id = ?,
				  expires_at = ?,
				  revoked_at = ?,
				  created_at = ?
			  WHERE id = ?`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	principalID, err := token.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		token.TokenHash,
		principalID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update refresh token")
	}

	return nil
}

// GetByTokenHash retrieves a RefreshToken by its hash from the MySQL database,
// unmarshaling BINARY(16) UUIDs. Uses transaction support via database.GetTx().
// Returns ErrRefreshTokenNotFound if no token matches the hash, or an error if UUID
// unmarshaling or database query fails.
func (m *MySQLRefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, principal_id, expires_at, revoked_at, created_at
			  FROM refresh_tokens WHERE token_hash = ?`

	var token tokenDomain.RefreshToken
	var idBytes, principalIDBytes []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&idBytes,
		&token.TokenHash,
		&principalIDBytes,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tokenDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal refresh token id")
	}
	if err := token.PrincipalID.UnmarshalBinary(principalIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}

	return &token, nil
}

// DeleteExpired removes refresh tokens that expired before the given time from the
// MySQL database. Returns the number of deleted rows, or an error if database
// deletion fails.
func (m *MySQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted refresh tokens")
	}

	return deleted, nil
}

// NewMySQLRefreshTokenRepository creates a new MySQL RefreshToken repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}
