package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/testutil"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

func newRefreshToken(principalID uuid.UUID, tokenHash string, expiresAt time.Time) *tokenDomain.RefreshToken {
	return &tokenDomain.RefreshToken{
		ID:          uuid.Must(uuid.NewV7()),
		TokenHash:   tokenHash,
		PrincipalID: principalID,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestNewPostgreSQLRefreshTokenRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLRefreshTokenRepository{}, repo)
}

func TestPostgreSQLRefreshTokenRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()

	principalID := testutil.CreateTestPrincipal(t, db, "postgres", "token-owner@example.com")
	token := newRefreshToken(principalID, "hash-1", time.Now().UTC().Add(time.Hour))

	err := repo.Create(ctx, token)
	require.NoError(t, err)

	read, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)

	assert.Equal(t, token.ID, read.ID)
	assert.Equal(t, principalID, read.PrincipalID)
	assert.Nil(t, read.RevokedAt)
	assert.WithinDuration(t, token.ExpiresAt, read.ExpiresAt, time.Second)
}

func TestPostgreSQLRefreshTokenRepository_GetByTokenHash_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()

	_, err := repo.GetByTokenHash(ctx, "missing-hash")
	assert.ErrorIs(t, err, tokenDomain.ErrRefreshTokenNotFound)
}

func TestPostgreSQLRefreshTokenRepository_Update_MarksRevoked(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()

	principalID := testutil.CreateTestPrincipal(t, db, "postgres", "revoke@example.com")
	token := newRefreshToken(principalID, "hash-revoke", time.Now().UTC().Add(time.Hour))

	err := repo.Create(ctx, token)
	require.NoError(t, err)

	revokedAt := time.Now().UTC()
	token.RevokedAt = &revokedAt
	err = repo.Update(ctx, token)
	require.NoError(t, err)

	read, err := repo.GetByTokenHash(ctx, "hash-revoke")
	require.NoError(t, err)
	require.NotNil(t, read.RevokedAt)
	assert.WithinDuration(t, revokedAt, *read.RevokedAt, time.Second)
}

func TestPostgreSQLRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()

	principalID := testutil.CreateTestPrincipal(t, db, "postgres", "expired@example.com")
	now := time.Now().UTC()

	expired1 := newRefreshToken(principalID, "hash-expired-1", now.Add(-2*time.Hour))
	expired2 := newRefreshToken(principalID, "hash-expired-2", now.Add(-time.Minute))
	live := newRefreshToken(principalID, "hash-live", now.Add(time.Hour))

	for _, token := range []*tokenDomain.RefreshToken{expired1, expired2, live} {
		err := repo.Create(ctx, token)
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// The live token survives
	_, err = repo.GetByTokenHash(ctx, "hash-live")
	assert.NoError(t, err)

	_, err = repo.GetByTokenHash(ctx, "hash-expired-1")
	assert.ErrorIs(t, err, tokenDomain.ErrRefreshTokenNotFound)
}
