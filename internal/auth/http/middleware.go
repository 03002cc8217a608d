package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	authUseCase "github.com/wardenauth/warden/internal/auth/usecase"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	apperrors "github.com/wardenauth/warden/internal/errors"
	"github.com/wardenauth/warden/internal/httputil"
)

// AuthenticationMiddleware authenticates requests via a Bearer access token
// in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Resolves it to a principal via AuthUseCase.GetCurrentUser
// 3. Stores the principal in the request context
// 4. Allows downstream handlers to access it via GetPrincipal()
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired token, unknown or disabled principal → 401 Unauthorized
//   - Other errors → 500 Internal Server Error
func AuthenticationMiddleware(
	authUC authUseCase.AuthUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		accessToken := authHeader[len(bearerPrefix):]
		if accessToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := authUC.GetCurrentUser(c.Request.Context(), accessToken)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithPrincipal(c.Request.Context(), principal)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("principal_id", principal.ID.String()),
			slog.String("principal_type", string(principal.Type)))

		c.Next()
	}
}

// RequirePermission guards a route group behind a role-based permission.
//
// MUST be used after AuthenticationMiddleware, as it resolves the caller from
// the request context and checks the permission against the caller's role
// assignments in force at request time. Guard checks are not written to the
// decision log; only explicit access checks are.
//
// Error handling:
//   - No authenticated principal in context → 401 Unauthorized
//   - Permission not granted → 403 Forbidden
//   - Evaluation failure → 500 Internal Server Error (fails closed)
func RequirePermission(
	permission string,
	rbacEvaluator authzService.RbacEvaluator,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok || principal == nil {
			logger.Error("permission guard: no authenticated principal in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		result, _, err := rbacEvaluator.CheckPermission(
			c.Request.Context(), principal.ID, permission, time.Now().UTC())
		if err != nil {
			logger.Error("permission guard: evaluation failed",
				slog.String("principal_id", principal.ID.String()),
				slog.String("permission", permission),
				slog.Any("error", err))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if result != authzDomain.ResultAllow {
			logger.Debug("permission guard: denied",
				slog.String("principal_id", principal.ID.String()),
				slog.String("permission", permission))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
