package domain

import (
	"github.com/google/uuid"
)

// AuthorizeInput describes a single access-check request. Attributes carry
// caller-supplied context for attribute-based evaluation; well-known
// attributes derived from the request itself (principal, resource, action)
// are filled in by the engine and take precedence over caller values.
type AuthorizeInput struct {
	RequestID    string         `json:"request_id"`
	PrincipalID  uuid.UUID      `json:"principal_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Attributes   map[string]any `json:"attributes"`
}

// AuthorizeOutput is the outcome of an access check. AuditID identifies the
// decision log entry recorded for this check.
type AuthorizeOutput struct {
	Decision  Result    `json:"decision"`
	AuditID   uuid.UUID `json:"audit_id"`
	RequestID string    `json:"request_id"`
}

// VerifyDecisionLogsOutput summarizes a signature verification sweep over
// the decision log.
type VerifyDecisionLogsOutput struct {
	Checked int         `json:"checked"`
	Invalid []uuid.UUID `json:"invalid"`
}
