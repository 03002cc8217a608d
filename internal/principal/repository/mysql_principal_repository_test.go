package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/principal/domain"
	"github.com/wardenauth/warden/internal/testutil"
)

func TestNewMySQLPrincipalRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLPrincipalRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLPrincipalRepository{}, repo)
}

func TestMySQLPrincipalRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLPrincipalRepository(db)
	ctx := context.Background()

	principal := newTestPrincipal("alice@example.com")
	err := repo.Create(ctx, principal)
	require.NoError(t, err)

	read, err := repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, read.ID)
	assert.Equal(t, "alice@example.com", read.Email)
	assert.True(t, read.Enabled)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, principal.ID, byEmail.ID)
}

func TestMySQLPrincipalRepository_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLPrincipalRepository(db)
	ctx := context.Background()

	first := newTestPrincipal("duplicate@example.com")
	err := repo.Create(ctx, first)
	require.NoError(t, err)

	second := newTestPrincipal("duplicate@example.com")
	err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrPrincipalAlreadyExists)
}

func TestMySQLPrincipalRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLPrincipalRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, domain.ErrPrincipalNotFound)
}

func TestMySQLPrincipalRepository_UpdateLockState(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLPrincipalRepository(db)
	ctx := context.Background()

	principal := newTestPrincipal("dave@example.com")
	err := repo.Create(ctx, principal)
	require.NoError(t, err)

	lockedUntil := time.Now().UTC().Add(30 * time.Minute)
	err = repo.UpdateLockState(ctx, principal.ID, 0, &lockedUntil)
	require.NoError(t, err)

	read, err := repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	require.NotNil(t, read.LockedUntil)
	assert.WithinDuration(t, lockedUntil, *read.LockedUntil, time.Second)
}
