package domain

import (
	"time"

	"github.com/google/uuid"
)

// Effect is the outcome a policy version produces when its condition holds.
type Effect string

const (
	// EffectAllow grants the evaluated action.
	EffectAllow Effect = "ALLOW"

	// EffectDeny refuses the evaluated action.
	EffectDeny Effect = "DENY"
)

// IsValid reports whether the effect is a known value.
func (e Effect) IsValid() bool {
	return e == EffectAllow || e == EffectDeny
}

// AbacPolicy is an attribute-based policy identified by a stable key.
// The key is either "resourceType:action" or a bare action name; lookup
// during authorization tries the specific form first.
type AbacPolicy struct {
	ID        uuid.UUID
	Key       string
	Name      string
	CreatedAt time.Time
}

// AbacPolicyVersion is one immutable revision of a policy's condition.
// Version numbers are monotonic per policy and at most one version is
// active at any time. Versions are never deleted.
type AbacPolicyVersion struct {
	ID        uuid.UUID
	PolicyID  uuid.UUID
	Version   int
	Effect    Effect
	Condition *Condition
	IsActive  bool
	CreatedAt time.Time
	CreatedBy string
}

// CreatePolicyInput carries the fields needed to create a policy.
type CreatePolicyInput struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CreatePolicyVersionInput carries the fields needed to add a policy version.
type CreatePolicyVersionInput struct {
	PolicyKey string     `json:"policy_key"`
	Effect    Effect     `json:"effect"`
	Condition *Condition `json:"condition"`
	CreatedBy string     `json:"created_by"`
}
