package domain

// Result is a binary authorization outcome.
type Result string

const (
	// ResultAllow grants the action.
	ResultAllow Result = "ALLOW"

	// ResultDeny refuses the action. Deny is the default and the override.
	ResultDeny Result = "DENY"
)

// AbacResult is the outcome of attribute-based evaluation. Unlike Result it
// carries a third state for "no policy had anything to say".
type AbacResult string

const (
	// AbacAllow means the active policy condition held and its effect is ALLOW.
	AbacAllow AbacResult = "ALLOW"

	// AbacDeny means the active policy condition held and its effect is DENY.
	AbacDeny AbacResult = "DENY"

	// AbacNotApplicable means no active policy applied or its condition did
	// not hold.
	AbacNotApplicable AbacResult = "NOT_APPLICABLE"
)

// CombineDecision merges RBAC and ABAC outcomes with deny-override
// semantics: any DENY wins, NOT_APPLICABLE defers to RBAC, and an ABAC
// ALLOW never overturns an RBAC DENY.
func CombineDecision(rbac Result, abac AbacResult) Result {
	if rbac == ResultDeny || abac == AbacDeny {
		return ResultDeny
	}
	if abac == AbacNotApplicable {
		return rbac
	}
	// abac == AbacAllow; rbac is ALLOW here since DENY was handled above.
	return rbac
}
