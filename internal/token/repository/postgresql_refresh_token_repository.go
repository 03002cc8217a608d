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

// PostgreSQLRefreshTokenRepository implements RefreshToken persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// Create inserts a new RefreshToken into the PostgreSQL database. Uses transaction
// support via database.GetTx(). Returns an error if database insertion fails.
func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens (id, token_hash, principal_id, expires_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.PrincipalID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// Update modifies an existing RefreshToken in the PostgreSQL database. Uses transaction
// support via database.GetTx(). Returns an error if database update fails.
func (p *PostgreSQLRefreshTokenRepository) Update(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET token_hash = $1,
			  	  principal_id = $2,
				  expires_at = $3,
				  revoked_at = $4,
				  created_at = $5
			  WHERE id = $6`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.TokenHash,
		token.PrincipalID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
		token.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update refresh token")
	}

	return nil
}

// GetByTokenHash retrieves a RefreshToken by its hash from the PostgreSQL database.
// Uses transaction support via database.GetTx(). Returns ErrRefreshTokenNotFound if
// no token matches the hash, or an error if database query fails.
func (p *PostgreSQLRefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, principal_id, expires_at, revoked_at, created_at
			  FROM refresh_tokens WHERE token_hash = $1`

	var token tokenDomain.RefreshToken

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.PrincipalID,
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

	return &token, nil
}

// DeleteExpired removes refresh tokens that expired before the given time from the
// PostgreSQL database. Returns the number of deleted rows, or an error if database
// deletion fails.
func (p *PostgreSQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

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

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL RefreshToken repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}
