// Package http provides HTTP handlers for authorization administration:
// roles, time-bounded role assignments, versioned policies and the
// decision log.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/authz/http/dto"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
	"github.com/wardenauth/warden/internal/httputil"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// RoleHandler handles HTTP requests for role and role assignment
// administration.
type RoleHandler struct {
	roleUseCase authzUseCase.RoleUseCase
	logger      *slog.Logger
}

// NewRoleHandler creates a new role handler with required dependencies.
func NewRoleHandler(
	roleUseCase authzUseCase.RoleUseCase,
	logger *slog.Logger,
) *RoleHandler {
	return &RoleHandler{
		roleUseCase: roleUseCase,
		logger:      logger,
	}
}

// CreateHandler creates a new role.
// POST /v1/admin/roles - Requires the warden:admin permission.
// Returns 201 Created with the new role.
func (h *RoleHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateRoleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authzDomain.CreateRoleInput{
		Name:        req.Name,
		Permissions: req.Permissions,
	}

	role, err := h.roleUseCase.CreateRole(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRoleToResponse(role))
}

// GetHandler retrieves a role by ID.
// GET /v1/admin/roles/:id - Requires the warden:admin permission.
// Returns 200 OK with the role.
func (h *RoleHandler) GetHandler(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid role ID format: must be a valid UUID"),
			h.logger)
		return
	}

	role, err := h.roleUseCase.GetRole(c.Request.Context(), roleID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRoleToResponse(role))
}

// ListHandler lists all roles, or looks up a single role when the name
// query parameter is present.
// GET /v1/admin/roles[?name=<name>] - Requires the warden:admin permission.
// Returns 200 OK with the roles.
func (h *RoleHandler) ListHandler(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		role, err := h.roleUseCase.GetRoleByName(c.Request.Context(), name)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		c.JSON(http.StatusOK, dto.MapRolesToListResponse([]*authzDomain.Role{role}))
		return
	}

	roles, err := h.roleUseCase.ListRoles(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRolesToListResponse(roles))
}

// AssignHandler grants a role to a principal, optionally bounded in time.
// POST /v1/admin/role-assignments - Requires the warden:admin permission.
// Returns 201 Created with the new assignment.
func (h *RoleHandler) AssignHandler(c *gin.Context) {
	var req dto.AssignRoleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	principalID, err := uuid.Parse(req.PrincipalID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid principal_id format: must be a valid UUID"),
			h.logger)
		return
	}

	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid role_id format: must be a valid UUID"),
			h.logger)
		return
	}

	input := &authzDomain.AssignRoleInput{
		PrincipalID: principalID,
		RoleID:      roleID,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
	}

	assignment, err := h.roleUseCase.AssignRole(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRoleAssignmentToResponse(assignment))
}

// EndAssignmentHandler closes a grant's validity window. The assignment row
// is preserved for audit history; an empty body ends the grant now.
// POST /v1/admin/role-assignments/:id/end - Requires the warden:admin permission.
// Returns 204 No Content on success.
func (h *RoleHandler) EndAssignmentHandler(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid assignment ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.EndAssignmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}

	if err := h.roleUseCase.EndAssignment(c.Request.Context(), assignmentID, req.At); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
