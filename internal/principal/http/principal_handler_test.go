package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	"github.com/wardenauth/warden/internal/principal/http/dto"
)

type mockPrincipalUseCase struct {
	mock.Mock
}

func (m *mockPrincipalUseCase) Provision(ctx context.Context, input principalDomain.ProvisionPrincipalInput) (*principalDomain.Principal, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) GetByID(ctx context.Context, id uuid.UUID) (*principalDomain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) GetByEmail(ctx context.Context, email string) (*principalDomain.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func (m *mockPrincipalUseCase) Unlock(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// setupTestHandler creates a test principal handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*PrincipalHandler, *mockPrincipalUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(mockPrincipalUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewPrincipalHandler(mockUseCase, logger)

	return handler, mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func newPrincipal() *principalDomain.Principal {
	now := time.Now().UTC()
	return &principalDomain.Principal{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      principalDomain.TypeUser,
		Name:      "Alice",
		Email:     "alice@example.com",
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPrincipalHandler_CreateHandler(t *testing.T) {
	t.Run("Success_UserPrincipal", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		principal := newPrincipal()
		request := dto.ProvisionPrincipalRequest{
			Type:     "user",
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "correct horse battery staple",
		}

		mockUseCase.On("Provision", mock.Anything, mock.MatchedBy(func(input principalDomain.ProvisionPrincipalInput) bool {
			return input.Type == principalDomain.TypeUser && input.Email == "alice@example.com"
		})).Return(principal, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/principals", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.PrincipalResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, principal.ID.String(), response.ID)
		assert.Equal(t, "user", response.Type)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidType", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.ProvisionPrincipalRequest{
			Type: "robot",
			Name: "Bender",
		}

		c, w := createTestContext(http.MethodPost, "/v1/admin/principals", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
	})

	t.Run("Error_DuplicateEmail", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.ProvisionPrincipalRequest{
			Type:     "user",
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "correct horse battery staple",
		}

		mockUseCase.On("Provision", mock.Anything, mock.Anything).
			Return(nil, principalDomain.ErrPrincipalAlreadyExists).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/principals", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestPrincipalHandler_GetHandler(t *testing.T) {
	t.Run("Success_Found", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		principal := newPrincipal()
		mockUseCase.On("GetByID", mock.Anything, principal.ID).Return(principal, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/principals/"+principal.ID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: principal.ID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.PrincipalResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, principal.ID.String(), response.ID)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/admin/principals/not-a-uuid", nil)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetByID", mock.Anything, id).
			Return(nil, principalDomain.ErrPrincipalNotFound).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/principals/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPrincipalHandler_GetByEmailHandler(t *testing.T) {
	t.Run("Success_Found", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		principal := newPrincipal()
		mockUseCase.On("GetByEmail", mock.Anything, "alice@example.com").Return(principal, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/principals?email=alice@example.com", nil)

		handler.GetByEmailHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_MissingEmail", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/admin/principals", nil)

		handler.GetByEmailHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

func TestPrincipalHandler_SetEnabledHandler(t *testing.T) {
	t.Run("Success_Disable", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		enabled := false
		mockUseCase.On("SetEnabled", mock.Anything, id, false).Return(nil).Once()

		c, w := createTestContext(http.MethodPut, "/v1/admin/principals/"+id.String()+"/enabled", dto.SetEnabledRequest{Enabled: &enabled})
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.SetEnabledHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_MissingEnabled", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodPut, "/v1/admin/principals/"+id.String()+"/enabled", dto.SetEnabledRequest{})
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.SetEnabledHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "SetEnabled", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPrincipalHandler_UnlockHandler(t *testing.T) {
	t.Run("Success_Unlocks", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("Unlock", mock.Anything, id).Return(nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/principals/"+id.String()+"/unlock", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.UnlockHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("Unlock", mock.Anything, id).
			Return(principalDomain.ErrPrincipalNotFound).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/principals/"+id.String()+"/unlock", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.UnlockHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
