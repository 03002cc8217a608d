package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/wardenauth/warden/internal/auth/http"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/authz/http/dto"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
	"github.com/wardenauth/warden/internal/httputil"
	customValidation "github.com/wardenauth/warden/internal/validation"
)

// PolicyHandler handles HTTP requests for versioned policy administration.
type PolicyHandler struct {
	policyUseCase authzUseCase.PolicyUseCase
	logger        *slog.Logger
}

// NewPolicyHandler creates a new policy handler with required dependencies.
func NewPolicyHandler(
	policyUseCase authzUseCase.PolicyUseCase,
	logger *slog.Logger,
) *PolicyHandler {
	return &PolicyHandler{
		policyUseCase: policyUseCase,
		logger:        logger,
	}
}

// CreateHandler creates a new policy container.
// POST /v1/admin/policies - Requires the warden:admin permission.
// Returns 201 Created with the new policy.
func (h *PolicyHandler) CreateHandler(c *gin.Context) {
	var req dto.CreatePolicyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authzDomain.CreatePolicyInput{
		Key:  req.Key,
		Name: req.Name,
	}

	policy, err := h.policyUseCase.CreatePolicy(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPolicyToResponse(policy))
}

// GetHandler retrieves a policy by its unique key.
// GET /v1/admin/policies/:key - Requires the warden:admin permission.
// Returns 200 OK with the policy.
func (h *PolicyHandler) GetHandler(c *gin.Context) {
	policy, err := h.policyUseCase.GetPolicyByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// ListHandler lists all policies.
// GET /v1/admin/policies - Requires the warden:admin permission.
// Returns 200 OK with the policies.
func (h *PolicyHandler) ListHandler(c *gin.Context) {
	policies, err := h.policyUseCase.ListPolicies(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// CreateVersionHandler appends a new version to a policy. Versions are
// immutable once written and start inactive.
// POST /v1/admin/policies/:key/versions - Requires the warden:admin permission.
// Returns 201 Created with the new version.
func (h *PolicyHandler) CreateVersionHandler(c *gin.Context) {
	var req dto.CreatePolicyVersionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authzDomain.CreatePolicyVersionInput{
		PolicyKey: c.Param("key"),
		Effect:    authzDomain.Effect(req.Effect),
		Condition: req.Condition,
		CreatedBy: authorName(c),
	}

	version, err := h.policyUseCase.CreateVersion(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPolicyVersionToResponse(version))
}

// ListVersionsHandler lists all versions of a policy, newest first.
// GET /v1/admin/policies/:key/versions - Requires the warden:admin permission.
// Returns 200 OK with the versions.
func (h *PolicyHandler) ListVersionsHandler(c *gin.Context) {
	versions, err := h.policyUseCase.ListVersions(c.Request.Context(), c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyVersionsToListResponse(versions))
}

// ActivateVersionHandler makes the given version the single active one for
// its policy, atomically deactivating the rest.
// POST /v1/admin/policies/:key/versions/:version/activate - Requires the warden:admin permission.
// Returns 204 No Content on success.
func (h *PolicyHandler) ActivateVersionHandler(c *gin.Context) {
	versionNumber, err := strconv.Atoi(c.Param("version"))
	if err != nil || versionNumber < 1 {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid version parameter: must be a positive integer"),
			h.logger)
		return
	}

	if err := h.policyUseCase.ActivateVersion(c.Request.Context(), c.Param("key"), versionNumber); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// authorName resolves the authenticated caller's identity for version
// attribution. Falls back to the principal name for service accounts
// without an email.
func authorName(c *gin.Context) string {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok || principal == nil {
		return ""
	}
	if principal.Email != "" {
		return principal.Email
	}
	return principal.Name
}
