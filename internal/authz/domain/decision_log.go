package domain

import (
	"time"

	"github.com/google/uuid"
)

// DecisionLog records one authorization decision for compliance and
// forensics. Entries are immutable: the core never mutates or deletes them.
// The Signature field carries an HMAC-SHA256 over the canonical form of the
// entry for tamper evidence.
type DecisionLog struct {
	ID            uuid.UUID
	RequestID     string // caller-supplied correlation ID
	PrincipalID   uuid.UUID
	Roles         []string // role names in force at decision time
	Action        string
	ResourceType  string
	ResourceID    string
	RbacResult    Result
	AbacResult    *AbacResult // nil when no policy was evaluated
	FinalDecision Result
	Metadata      map[string]any
	Signature     []byte
	CreatedAt     time.Time
}

// ListDecisionLogsInput filters and paginates decision log listings.
type ListDecisionLogsInput struct {
	PrincipalID *uuid.UUID
	Since       *time.Time
	Until       *time.Time
	Limit       int
	Offset      int
}
