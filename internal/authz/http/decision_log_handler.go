package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/authz/http/dto"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
	"github.com/wardenauth/warden/internal/httputil"
)

// DecisionLogHandler handles HTTP requests for reading and verifying the
// decision log. The log itself is append-only; no write endpoints exist.
type DecisionLogHandler struct {
	decisionLogUseCase authzUseCase.DecisionLogUseCase
	logger             *slog.Logger
}

// NewDecisionLogHandler creates a new decision log handler with required dependencies.
func NewDecisionLogHandler(
	decisionLogUseCase authzUseCase.DecisionLogUseCase,
	logger *slog.Logger,
) *DecisionLogHandler {
	return &DecisionLogHandler{
		decisionLogUseCase: decisionLogUseCase,
		logger:             logger,
	}
}

// parseDecisionLogFilters extracts the optional principal and time filters
// from query parameters.
func parseDecisionLogFilters(c *gin.Context) (*authzDomain.ListDecisionLogsInput, error) {
	input := &authzDomain.ListDecisionLogsInput{}

	if principalID := c.Query("principal_id"); principalID != "" {
		id, err := uuid.Parse(principalID)
		if err != nil {
			return nil, fmt.Errorf("invalid principal_id format: must be a valid UUID")
		}
		input.PrincipalID = &id
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("invalid since parameter: must be RFC 3339")
		}
		input.Since = &t
	}

	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return nil, fmt.Errorf("invalid until parameter: must be RFC 3339")
		}
		input.Until = &t
	}

	return input, nil
}

// ListHandler lists decision log entries newest first with pagination and
// optional principal and time filters.
// GET /v1/admin/decision-logs - Requires the warden:admin permission.
// Returns 200 OK with the entries.
func (h *DecisionLogHandler) ListHandler(c *gin.Context) {
	input, err := parseDecisionLogFilters(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	input.Offset = offset
	input.Limit = limit

	entries, err := h.decisionLogUseCase.List(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDecisionLogsToListResponse(entries))
}

// VerifyHandler sweeps decision log entries matching the filters and
// re-checks each entry's signature, reporting any that fail.
// POST /v1/admin/decision-logs/verify - Requires the warden:admin permission.
// Returns 200 OK with the sweep result.
func (h *DecisionLogHandler) VerifyHandler(c *gin.Context) {
	input, err := parseDecisionLogFilters(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.decisionLogUseCase.Verify(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerifyToResponse(output))
}
