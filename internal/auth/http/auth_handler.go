package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/wardenauth/warden/internal/auth/domain"
	"github.com/wardenauth/warden/internal/auth/http/dto"
	authUseCase "github.com/wardenauth/warden/internal/auth/usecase"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	apperrors "github.com/wardenauth/warden/internal/errors"
	"github.com/wardenauth/warden/internal/httputil"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// AuthHandler handles HTTP requests for authentication operations.
// It coordinates sign-in, token refresh and revocation with the AuthUseCase.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new authentication handler with required dependencies.
func NewAuthHandler(
	authUseCase authUseCase.AuthUseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// SignInHandler authenticates an email/password credential.
// POST /v1/auth/sign-in - No authentication required (this is the authentication endpoint).
// Returns 200 OK with an access token, plus a refresh token when requested.
func (h *AuthHandler) SignInHandler(c *gin.Context) {
	var req dto.SignInRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.SignInInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}

	output, err := h.authUseCase.SignIn(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignInToResponse(output))
}

// RefreshHandler exchanges a refresh token for a new access token.
// POST /v1/auth/refresh - No authentication required (the refresh token is the credential).
// Returns 200 OK with the new access token.
func (h *AuthHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.authUseCase.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.RefreshResponse{
		AccessToken:          output.AccessToken,
		AccessTokenExpiresAt: output.AccessTokenExpiresAt,
	}

	c.JSON(http.StatusOK, response)
}

// RevokeHandler invalidates a refresh token.
// POST /v1/auth/revoke - No authentication required (the refresh token is the credential).
// Returns 204 No Content on success.
func (h *AuthHandler) RevokeHandler(c *gin.Context) {
	var req dto.RevokeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.authUseCase.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// MeHandler returns the authenticated caller's principal.
// GET /v1/auth/me - Requires authentication.
// Returns 200 OK with the principal.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok || principal == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPrincipalToResponse(principal))
}

// AuthorizeHandler evaluates an access check and records the decision.
// POST /v1/authorize - Requires authentication.
// When principal_id is omitted, the check runs against the caller itself.
// Returns 200 OK with the decision for both ALLOW and DENY outcomes.
func (h *AuthHandler) AuthorizeHandler(c *gin.Context) {
	var req dto.AuthorizeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	caller, ok := GetPrincipal(c.Request.Context())
	if !ok || caller == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	principalID := caller.ID
	if req.PrincipalID != "" {
		parsed, err := uuid.Parse(req.PrincipalID)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid principal_id format: must be a valid UUID"),
				h.logger)
			return
		}
		principalID = parsed
	}

	input := &authzDomain.AuthorizeInput{
		RequestID:    requestid.Get(c),
		PrincipalID:  principalID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Attributes:   req.Attributes,
	}

	output, err := h.authUseCase.Authorize(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthorizeToResponse(output))
}
