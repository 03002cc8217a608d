// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// MapRoleToResponse converts a domain role to an API response.
func MapRoleToResponse(role *authzDomain.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt,
	}
}

// ListRolesResponse represents a list of roles in API responses.
type ListRolesResponse struct {
	Data []RoleResponse `json:"data"`
}

// MapRolesToListResponse converts a slice of domain roles to a list API response.
func MapRolesToListResponse(roles []*authzDomain.Role) ListRolesResponse {
	roleResponses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		roleResponses = append(roleResponses, MapRoleToResponse(role))
	}
	return ListRolesResponse{
		Data: roleResponses,
	}
}

// RoleAssignmentResponse represents a role assignment in API responses.
type RoleAssignmentResponse struct {
	ID          string     `json:"id"`
	PrincipalID string     `json:"principal_id"`
	RoleID      string     `json:"role_id"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MapRoleAssignmentToResponse converts a domain role assignment to an API response.
func MapRoleAssignmentToResponse(assignment *authzDomain.RoleAssignment) RoleAssignmentResponse {
	return RoleAssignmentResponse{
		ID:          assignment.ID.String(),
		PrincipalID: assignment.PrincipalID.String(),
		RoleID:      assignment.RoleID.String(),
		ValidFrom:   assignment.ValidFrom,
		ValidUntil:  assignment.ValidUntil,
		CreatedAt:   assignment.CreatedAt,
	}
}

// PolicyResponse represents a policy container in API responses.
type PolicyResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MapPolicyToResponse converts a domain policy to an API response.
func MapPolicyToResponse(policy *authzDomain.AbacPolicy) PolicyResponse {
	return PolicyResponse{
		ID:        policy.ID.String(),
		Key:       policy.Key,
		Name:      policy.Name,
		CreatedAt: policy.CreatedAt,
	}
}

// ListPoliciesResponse represents a list of policies in API responses.
type ListPoliciesResponse struct {
	Data []PolicyResponse `json:"data"`
}

// MapPoliciesToListResponse converts a slice of domain policies to a list API response.
func MapPoliciesToListResponse(policies []*authzDomain.AbacPolicy) ListPoliciesResponse {
	policyResponses := make([]PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		policyResponses = append(policyResponses, MapPolicyToResponse(policy))
	}
	return ListPoliciesResponse{
		Data: policyResponses,
	}
}

// PolicyVersionResponse represents a policy version in API responses.
type PolicyVersionResponse struct {
	ID        string                 `json:"id"`
	PolicyID  string                 `json:"policy_id"`
	Version   int                    `json:"version"`
	Effect    string                 `json:"effect"`
	Condition *authzDomain.Condition `json:"condition"`
	IsActive  bool                   `json:"is_active"`
	CreatedAt time.Time              `json:"created_at"`
	CreatedBy string                 `json:"created_by,omitempty"`
}

// MapPolicyVersionToResponse converts a domain policy version to an API response.
func MapPolicyVersionToResponse(version *authzDomain.AbacPolicyVersion) PolicyVersionResponse {
	return PolicyVersionResponse{
		ID:        version.ID.String(),
		PolicyID:  version.PolicyID.String(),
		Version:   version.Version,
		Effect:    string(version.Effect),
		Condition: version.Condition,
		IsActive:  version.IsActive,
		CreatedAt: version.CreatedAt,
		CreatedBy: version.CreatedBy,
	}
}

// ListPolicyVersionsResponse represents a list of policy versions in API responses.
type ListPolicyVersionsResponse struct {
	Data []PolicyVersionResponse `json:"data"`
}

// MapPolicyVersionsToListResponse converts a slice of domain policy versions to a list API response.
func MapPolicyVersionsToListResponse(versions []*authzDomain.AbacPolicyVersion) ListPolicyVersionsResponse {
	versionResponses := make([]PolicyVersionResponse, 0, len(versions))
	for _, version := range versions {
		versionResponses = append(versionResponses, MapPolicyVersionToResponse(version))
	}
	return ListPolicyVersionsResponse{
		Data: versionResponses,
	}
}

// DecisionLogResponse represents a decision log entry in API responses.
type DecisionLogResponse struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id"`
	PrincipalID   string         `json:"principal_id"`
	Roles         []string       `json:"roles"`
	Action        string         `json:"action"`
	ResourceType  string         `json:"resource_type,omitempty"`
	ResourceID    string         `json:"resource_id,omitempty"`
	RbacResult    string         `json:"rbac_result"`
	AbacResult    *string        `json:"abac_result,omitempty"`
	FinalDecision string         `json:"final_decision"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MapDecisionLogToResponse converts a domain decision log entry to an API response.
func MapDecisionLogToResponse(entry *authzDomain.DecisionLog) DecisionLogResponse {
	var abacResult *string
	if entry.AbacResult != nil {
		value := string(*entry.AbacResult)
		abacResult = &value
	}

	return DecisionLogResponse{
		ID:            entry.ID.String(),
		RequestID:     entry.RequestID,
		PrincipalID:   entry.PrincipalID.String(),
		Roles:         entry.Roles,
		Action:        entry.Action,
		ResourceType:  entry.ResourceType,
		ResourceID:    entry.ResourceID,
		RbacResult:    string(entry.RbacResult),
		AbacResult:    abacResult,
		FinalDecision: string(entry.FinalDecision),
		Metadata:      entry.Metadata,
		CreatedAt:     entry.CreatedAt,
	}
}

// ListDecisionLogsResponse represents a list of decision log entries in API responses.
type ListDecisionLogsResponse struct {
	Data []DecisionLogResponse `json:"data"`
}

// MapDecisionLogsToListResponse converts a slice of domain decision log entries to a list API response.
func MapDecisionLogsToListResponse(entries []*authzDomain.DecisionLog) ListDecisionLogsResponse {
	entryResponses := make([]DecisionLogResponse, 0, len(entries))
	for _, entry := range entries {
		entryResponses = append(entryResponses, MapDecisionLogToResponse(entry))
	}
	return ListDecisionLogsResponse{
		Data: entryResponses,
	}
}

// VerifyDecisionLogsResponse reports the outcome of a signature sweep.
type VerifyDecisionLogsResponse struct {
	Checked int      `json:"checked"`
	Invalid []string `json:"invalid"`
}

// MapVerifyToResponse converts a domain verification result to an API response.
func MapVerifyToResponse(output *authzDomain.VerifyDecisionLogsOutput) VerifyDecisionLogsResponse {
	invalid := make([]string, 0, len(output.Invalid))
	for _, id := range output.Invalid {
		invalid = append(invalid, id.String())
	}
	return VerifyDecisionLogsResponse{
		Checked: output.Checked,
		Invalid: invalid,
	}
}
