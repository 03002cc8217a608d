package http

import (
	"context"
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

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	apperrors "github.com/wardenauth/warden/internal/errors"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

type mockRbacEvaluator struct {
	mock.Mock
}

func (m *mockRbacEvaluator) CheckPermission(ctx context.Context, principalID uuid.UUID, permission string, at time.Time) (authzDomain.Result, []string, error) {
	args := m.Called(ctx, principalID, permission, at)
	if args.Get(1) == nil {
		return args.Get(0).(authzDomain.Result), nil, args.Error(2)
	}
	return args.Get(0).(authzDomain.Result), args.Get(1).([]string), args.Error(2)
}

func (m *mockRbacEvaluator) RoleNamesAt(ctx context.Context, principalID uuid.UUID, at time.Time) ([]string, error) {
	args := m.Called(ctx, principalID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticationMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(authUC *mockAuthUseCase) *gin.Engine {
		router := gin.New()
		router.Use(AuthenticationMiddleware(authUC, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			principal, ok := GetPrincipal(c.Request.Context())
			if !ok || principal == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"principal_id": principal.ID.String()})
		})
		return router
	}

	t.Run("Success_ValidToken", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		principal := testPrincipal()
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(principal, nil)

		w := performRequest(newRouter(authUC), "Bearer valid-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), principal.ID.String())
	})

	t.Run("Success_CaseInsensitiveBearer", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(testPrincipal(), nil)

		w := performRequest(newRouter(authUC), "bEaReR valid-token")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_MissingHeader", func(t *testing.T) {
		authUC := new(mockAuthUseCase)

		w := performRequest(newRouter(authUC), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		authUC.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("Error_MalformedHeader", func(t *testing.T) {
		authUC := new(mockAuthUseCase)

		w := performRequest(newRouter(authUC), "Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		authUC.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("Error_EmptyToken", func(t *testing.T) {
		authUC := new(mockAuthUseCase)

		w := performRequest(newRouter(authUC), "Bearer ")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		authUC.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidToken", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		authUC.On("GetCurrentUser", mock.Anything, "expired-token").
			Return(nil, tokenDomain.ErrTokenExpired)

		w := performRequest(newRouter(authUC), "Bearer expired-token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(authUC *mockAuthUseCase, rbac *mockRbacEvaluator) *gin.Engine {
		router := gin.New()
		router.Use(AuthenticationMiddleware(authUC, discardLogger()))
		router.Use(RequirePermission("warden:admin", rbac, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		return router
	}

	t.Run("Success_PermissionGranted", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		rbac := new(mockRbacEvaluator)
		principal := testPrincipal()
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(principal, nil)
		rbac.On("CheckPermission", mock.Anything, principal.ID, "warden:admin", mock.AnythingOfType("time.Time")).
			Return(authzDomain.ResultAllow, []string{"admin"}, nil)

		w := performRequest(newRouter(authUC, rbac), "Bearer valid-token")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_PermissionDenied", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		rbac := new(mockRbacEvaluator)
		principal := testPrincipal()
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(principal, nil)
		rbac.On("CheckPermission", mock.Anything, principal.ID, "warden:admin", mock.AnythingOfType("time.Time")).
			Return(authzDomain.ResultDeny, []string{"viewer"}, nil)

		w := performRequest(newRouter(authUC, rbac), "Bearer valid-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_EvaluationFailure", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		rbac := new(mockRbacEvaluator)
		principal := testPrincipal()
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(principal, nil)
		rbac.On("CheckPermission", mock.Anything, principal.ID, "warden:admin", mock.AnythingOfType("time.Time")).
			Return(authzDomain.ResultDeny, nil, apperrors.New("database down"))

		w := performRequest(newRouter(authUC, rbac), "Bearer valid-token")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Error_NoAuthenticatedPrincipal", func(t *testing.T) {
		rbac := new(mockRbacEvaluator)
		router := gin.New()
		router.Use(RequirePermission("warden:admin", rbac, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := performRequest(router, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		rbac.AssertNotCalled(t, "CheckPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("AllowsWithinLimit", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(testPrincipal(), nil)

		router := gin.New()
		router.Use(AuthenticationMiddleware(authUC, discardLogger()))
		router.Use(RateLimitMiddleware(100, 10, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := performRequest(router, "Bearer valid-token")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("RejectsWhenExceeded", func(t *testing.T) {
		authUC := new(mockAuthUseCase)
		authUC.On("GetCurrentUser", mock.Anything, "valid-token").Return(testPrincipal(), nil)

		router := gin.New()
		router.Use(AuthenticationMiddleware(authUC, discardLogger()))
		router.Use(RateLimitMiddleware(0.001, 1, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		first := performRequest(router, "Bearer valid-token")
		second := performRequest(router, "Bearer valid-token")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.NotEmpty(t, second.Header().Get("Retry-After"))
	})
}

func TestSignInRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("RejectsWhenExceeded", func(t *testing.T) {
		router := gin.New()
		router.Use(SignInRateLimitMiddleware(0.001, 1, discardLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		first := performRequest(router, "")
		second := performRequest(router, "")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.NotEmpty(t, second.Header().Get("Retry-After"))
	})
}
