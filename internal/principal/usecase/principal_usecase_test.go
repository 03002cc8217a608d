package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wardenauth/warden/internal/errors"
	"github.com/wardenauth/warden/internal/principal/domain"
)

// mockPrincipalRepository is a mock implementation of PrincipalRepository for testing.
type mockPrincipalRepository struct {
	mock.Mock
}

func (m *mockPrincipalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *mockPrincipalRepository) Update(ctx context.Context, principal *domain.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *mockPrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *mockPrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *mockPrincipalRepository) UpdateLockState(
	ctx context.Context,
	id uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	args := m.Called(ctx, id, failedAttempts, lockedUntil)
	return args.Error(0)
}

func TestPrincipalUseCase_Provision(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UserPrincipalHashesPassword", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
		require.NoError(t, err)

		var created *domain.Principal
		mockRepo.On("Create", ctx, mock.MatchedBy(func(p *domain.Principal) bool {
			created = p
			return p.Type == domain.TypeUser &&
				p.Email == "alice@example.com" &&
				p.Enabled &&
				p.Password != "" &&
				p.Password != "Sup3r-Secret!"
		})).Return(nil).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		principal, err := uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type:     domain.TypeUser,
			Name:     "Alice",
			Email:    "Alice@Example.COM",
			Password: "Sup3r-Secret!",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", principal.Email)

		ok, err := hasher.Verify([]byte("Sup3r-Secret!"), created.Password)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Success_ServicePrincipalWithoutPassword", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		mockRepo.On("Create", ctx, mock.MatchedBy(func(p *domain.Principal) bool {
			return p.Type == domain.TypeService && p.Password == ""
		})).Return(nil).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		_, err = uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type: domain.TypeService,
			Name: "ci-runner",
		})

		assert.NoError(t, err)
	})

	t.Run("Error_ServicePrincipalWithPassword", func(t *testing.T) {
		uc, err := NewPrincipalUseCase(&mockPrincipalRepository{})
		require.NoError(t, err)

		_, err = uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type:     domain.TypeService,
			Name:     "ci-runner",
			Password: "Sup3r-Secret!",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_UserWithoutEmail", func(t *testing.T) {
		uc, err := NewPrincipalUseCase(&mockPrincipalRepository{})
		require.NoError(t, err)

		_, err = uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type:     domain.TypeUser,
			Name:     "Alice",
			Password: "Sup3r-Secret!",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_WeakPassword", func(t *testing.T) {
		uc, err := NewPrincipalUseCase(&mockPrincipalRepository{})
		require.NoError(t, err)

		_, err = uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type:     domain.TypeUser,
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "password",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_DuplicateEmail", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		mockRepo.On("Create", ctx, mock.Anything).
			Return(domain.ErrPrincipalAlreadyExists).
			Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		_, err = uc.Provision(ctx, domain.ProvisionPrincipalInput{
			Type:     domain.TypeUser,
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "Sup3r-Secret!",
		})

		assert.True(t, apperrors.Is(err, domain.ErrPrincipalAlreadyExists))
	})
}

func TestPrincipalUseCase_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NormalizesEmail", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		principal := &domain.Principal{ID: uuid.Must(uuid.NewV7()), Email: "alice@example.com"}
		mockRepo.On("GetByEmail", ctx, "alice@example.com").Return(principal, nil).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		got, err := uc.GetByEmail(ctx, "  Alice@Example.COM ")

		assert.NoError(t, err)
		assert.Equal(t, principal.ID, got.ID)
		mockRepo.AssertExpectations(t)
	})
}

func TestPrincipalUseCase_SetEnabled(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success_DisablesPrincipal", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		principal := &domain.Principal{ID: id, Enabled: true}

		mockRepo.On("GetByID", ctx, id).Return(principal, nil).Once()
		mockRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.Principal) bool {
			return !p.Enabled
		})).Return(nil).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		assert.NoError(t, uc.SetEnabled(ctx, id, false))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error_PrincipalNotFound", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		mockRepo.On("GetByID", ctx, id).Return(nil, domain.ErrPrincipalNotFound).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		err = uc.SetEnabled(ctx, id, false)
		assert.True(t, apperrors.Is(err, domain.ErrPrincipalNotFound))
	})
}

func TestPrincipalUseCase_Unlock(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success_ClearsLockState", func(t *testing.T) {
		mockRepo := &mockPrincipalRepository{}
		lockedUntil := time.Now().UTC().Add(time.Hour)
		principal := &domain.Principal{ID: id, FailedAttempts: 10, LockedUntil: &lockedUntil}

		mockRepo.On("GetByID", ctx, id).Return(principal, nil).Once()
		mockRepo.On("UpdateLockState", ctx, id, 0, (*time.Time)(nil)).Return(nil).Once()

		uc, err := NewPrincipalUseCase(mockRepo)
		require.NoError(t, err)

		assert.NoError(t, uc.Unlock(ctx, id))
		mockRepo.AssertExpectations(t)
	})
}
