package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// abacEvaluator implements AbacEvaluator over the policy repository with a
// TTL-bounded cache of active versions. A nil cache value records "no
// active version" so the absence of a policy doesn't hit the repository on
// every decision. Activation invalidates the key synchronously, so the TTL
// only bounds staleness across processes.
type abacEvaluator struct {
	policyReader ActivePolicyReader
	versionCache *expirable.LRU[string, *authzDomain.AbacPolicyVersion]
	group        singleflight.Group
}

// NewAbacEvaluator creates an AbacEvaluator with an active-version cache of
// the given size and TTL.
func NewAbacEvaluator(policyReader ActivePolicyReader, cacheSize int, cacheTTL time.Duration) AbacEvaluator {
	return &abacEvaluator{
		policyReader: policyReader,
		versionCache: expirable.NewLRU[string, *authzDomain.AbacPolicyVersion](cacheSize, nil, cacheTTL),
	}
}

// CheckPolicy evaluates the active policy version against the attributes.
//
// Outcomes:
//   - no policy or no active version: AbacNotApplicable
//   - condition holds: the version's effect
//   - condition does not hold: AbacNotApplicable
//   - condition fails to evaluate (missing attribute, malformed node):
//     ErrPolicyEvaluation, distinct from DENY so callers fail closed with
//     an error rather than recording a legitimate denial
//
// The evaluated flag is false only in the first case.
func (e *abacEvaluator) CheckPolicy(
	ctx context.Context,
	policyKey string,
	attrs map[string]any,
) (authzDomain.AbacResult, bool, error) {
	version, err := e.getActiveVersion(ctx, policyKey)
	if err != nil {
		return "", false, err
	}
	if version == nil {
		return authzDomain.AbacNotApplicable, false, nil
	}

	matched, err := version.Condition.Evaluate(attrs)
	if err != nil {
		return "", true, apperrors.Wrap(authzDomain.ErrPolicyEvaluation, err.Error())
	}
	if !matched {
		return authzDomain.AbacNotApplicable, true, nil
	}

	if version.Effect == authzDomain.EffectDeny {
		return authzDomain.AbacDeny, true, nil
	}
	return authzDomain.AbacAllow, true, nil
}

// Invalidate drops the cached active version for the policy key.
func (e *abacEvaluator) Invalidate(policyKey string) {
	e.versionCache.Remove(policyKey)
}

// getActiveVersion returns the cached active version, a cached nil for "no
// active version", or fetches from the repository. Concurrent fetches for
// the same key are collapsed into one.
func (e *abacEvaluator) getActiveVersion(ctx context.Context, policyKey string) (*authzDomain.AbacPolicyVersion, error) {
	if version, ok := e.versionCache.Get(policyKey); ok {
		return version, nil
	}

	result, err, _ := e.group.Do(policyKey, func() (any, error) {
		version, err := e.policyReader.GetActiveVersionByKey(ctx, policyKey)
		if err != nil {
			if apperrors.Is(err, authzDomain.ErrPolicyVersionNotFound) {
				// Negative entry: absence is the common case and must not
				// cost a query per decision.
				e.versionCache.Add(policyKey, nil)
				return (*authzDomain.AbacPolicyVersion)(nil), nil
			}
			return nil, err
		}
		e.versionCache.Add(policyKey, version)
		return version, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*authzDomain.AbacPolicyVersion), nil
}
