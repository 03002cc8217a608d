package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// countingPolicyReader serves fixed active versions and counts lookups.
type countingPolicyReader struct {
	versions map[string]*authzDomain.AbacPolicyVersion
	err      error
	gets     atomic.Int64
}

func (s *countingPolicyReader) GetActiveVersionByKey(_ context.Context, key string) (*authzDomain.AbacPolicyVersion, error) {
	s.gets.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	version, ok := s.versions[key]
	if !ok {
		return nil, authzDomain.ErrPolicyVersionNotFound
	}
	return version, nil
}

func newActiveVersion(t *testing.T, effect authzDomain.Effect, conditionDoc string) *authzDomain.AbacPolicyVersion {
	t.Helper()
	var condition authzDomain.Condition
	require.NoError(t, json.Unmarshal([]byte(conditionDoc), &condition))
	return &authzDomain.AbacPolicyVersion{
		ID:        uuid.Must(uuid.NewV7()),
		PolicyID:  uuid.Must(uuid.NewV7()),
		Version:   1,
		Effect:    effect,
		Condition: &condition,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAbacEvaluator_CheckPolicy(t *testing.T) {
	ctx := context.Background()
	attrs := map[string]any{
		"principal.department": "engineering",
		"resource.classified":  true,
	}

	t.Run("Success_ConditionHolds_Allow", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectAllow,
				`{"attr":"principal.department","op":"eq","value":"engineering"}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.True(t, evaluated)
		assert.Equal(t, authzDomain.AbacAllow, result)
	})

	t.Run("Success_ConditionHolds_Deny", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectDeny,
				`{"attr":"resource.classified","op":"eq","value":true}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.True(t, evaluated)
		assert.Equal(t, authzDomain.AbacDeny, result)
	})

	t.Run("Success_ConditionNotMet_NotApplicable", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectDeny,
				`{"attr":"principal.department","op":"eq","value":"sales"}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.True(t, evaluated)
		assert.Equal(t, authzDomain.AbacNotApplicable, result)
	})

	t.Run("Success_NoPolicy_NotApplicable", func(t *testing.T) {
		reader := &countingPolicyReader{}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.False(t, evaluated)
		assert.Equal(t, authzDomain.AbacNotApplicable, result)
	})

	t.Run("Success_AbsenceIsCached", func(t *testing.T) {
		reader := &countingPolicyReader{}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		for i := 0; i < 3; i++ {
			_, _, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
			require.NoError(t, err)
		}

		assert.Equal(t, int64(1), reader.gets.Load(), "missing policy should be looked up once")
	})

	t.Run("Success_ActiveVersionIsCached", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectAllow,
				`{"attr":"principal.department","op":"eq","value":"engineering"}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		for i := 0; i < 3; i++ {
			_, _, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
			require.NoError(t, err)
		}

		assert.Equal(t, int64(1), reader.gets.Load())
	})

	t.Run("Success_InvalidateForcesRefetch", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectAllow,
				`{"attr":"principal.department","op":"eq","value":"engineering"}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		_, _, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)

		// Swap the active version and invalidate, as activation does.
		reader.versions["document:read"] = newActiveVersion(t, authzDomain.EffectDeny,
			`{"attr":"principal.department","op":"eq","value":"engineering"}`)
		evaluator.Invalidate("document:read")

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.True(t, evaluated)
		assert.Equal(t, authzDomain.AbacDeny, result)
		assert.Equal(t, int64(2), reader.gets.Load())
	})

	t.Run("Error_EvaluationFailureIsDistinctFromDeny", func(t *testing.T) {
		reader := &countingPolicyReader{versions: map[string]*authzDomain.AbacPolicyVersion{
			"document:read": newActiveVersion(t, authzDomain.EffectAllow,
				`{"attr":"principal.missing","op":"eq","value":"x"}`),
		}}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		assert.True(t, evaluated)
		assert.Empty(t, result)
		assert.True(t, apperrors.Is(err, authzDomain.ErrPolicyEvaluation))
	})

	t.Run("Error_RepositoryFailureIsNotCached", func(t *testing.T) {
		reader := &countingPolicyReader{err: errors.New("database down")}
		evaluator := NewAbacEvaluator(reader, 16, time.Minute)

		_, _, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		assert.Error(t, err)

		reader.err = nil
		result, evaluated, err := evaluator.CheckPolicy(ctx, "document:read", attrs)
		require.NoError(t, err)
		assert.False(t, evaluated)
		assert.Equal(t, authzDomain.AbacNotApplicable, result)
		assert.Equal(t, int64(2), reader.gets.Load())
	})
}
