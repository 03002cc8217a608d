// Package http provides HTTP handlers for principal administration.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wardenauth/warden/internal/httputil"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	"github.com/wardenauth/warden/internal/principal/http/dto"
	principalUseCase "github.com/wardenauth/warden/internal/principal/usecase"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// PrincipalHandler handles HTTP requests for principal administration.
type PrincipalHandler struct {
	principalUseCase principalUseCase.UseCase
	logger           *slog.Logger
}

// NewPrincipalHandler creates a new principal handler with required dependencies.
func NewPrincipalHandler(
	principalUseCase principalUseCase.UseCase,
	logger *slog.Logger,
) *PrincipalHandler {
	return &PrincipalHandler{
		principalUseCase: principalUseCase,
		logger:           logger,
	}
}

// parsePrincipalID extracts and validates the principal ID path parameter.
func parsePrincipalID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid principal ID format: must be a valid UUID")
	}
	return id, nil
}

// CreateHandler provisions a new principal.
// POST /v1/admin/principals - Requires the warden:admin permission.
// Returns 201 Created with the new principal.
func (h *PrincipalHandler) CreateHandler(c *gin.Context) {
	var req dto.ProvisionPrincipalRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := principalDomain.ProvisionPrincipalInput{
		Type:        principalDomain.PrincipalType(req.Type),
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		ExternalRef: req.ExternalRef,
	}

	principal, err := h.principalUseCase.Provision(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPrincipalToResponse(principal))
}

// GetHandler retrieves a principal by ID.
// GET /v1/admin/principals/:id - Requires the warden:admin permission.
// Returns 200 OK with the principal.
func (h *PrincipalHandler) GetHandler(c *gin.Context) {
	id, err := parsePrincipalID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	principal, err := h.principalUseCase.GetByID(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPrincipalToResponse(principal))
}

// GetByEmailHandler retrieves a principal by email.
// GET /v1/admin/principals?email=<email> - Requires the warden:admin permission.
// Returns 200 OK with the principal.
func (h *PrincipalHandler) GetByEmailHandler(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("email query parameter is required"),
			h.logger)
		return
	}

	principal, err := h.principalUseCase.GetByEmail(c.Request.Context(), email)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPrincipalToResponse(principal))
}

// SetEnabledHandler enables or disables a principal. Disabling is the only
// removal mechanism; rows are never deleted.
// PUT /v1/admin/principals/:id/enabled - Requires the warden:admin permission.
// Returns 204 No Content on success.
func (h *PrincipalHandler) SetEnabledHandler(c *gin.Context) {
	id, err := parsePrincipalID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.SetEnabledRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.principalUseCase.SetEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlockHandler clears a principal's lockout state.
// POST /v1/admin/principals/:id/unlock - Requires the warden:admin permission.
// Returns 204 No Content on success.
func (h *PrincipalHandler) UnlockHandler(c *gin.Context) {
	id, err := parsePrincipalID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.principalUseCase.Unlock(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
