package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
)

// countingKeyStore is a KeyStore stub that counts backend fetches.
type countingKeyStore struct {
	signingCalls int64
	verifyCalls  int64
	failing      bool
}

func (c *countingKeyStore) GetSigningKey(
	_ context.Context,
	keyID string,
) (*keysDomain.SigningKey, error) {
	atomic.AddInt64(&c.signingCalls, 1)
	if c.failing {
		return nil, keysDomain.ErrKeyUnavailable
	}
	return &keysDomain.SigningKey{
		KeyID:     keyID,
		Algorithm: keysDomain.AlgorithmHS256,
		Secret:    []byte("secret"),
	}, nil
}

func (c *countingKeyStore) GetVerificationKey(
	_ context.Context,
	keyID string,
) (*keysDomain.VerificationKey, error) {
	atomic.AddInt64(&c.verifyCalls, 1)
	if c.failing {
		return nil, keysDomain.ErrKeyUnavailable
	}
	return &keysDomain.VerificationKey{
		KeyID:     keyID,
		Algorithm: keysDomain.AlgorithmHS256,
		Secret:    []byte("secret"),
	}, nil
}

func (c *countingKeyStore) IsAvailable(_ context.Context) bool {
	return !c.failing
}

func TestCachedKeyStore_GetSigningKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SecondLookupServedFromCache", func(t *testing.T) {
		backend := &countingKeyStore{}
		store := NewCachedKeyStore(backend, 16, time.Minute)

		first, err := store.GetSigningKey(ctx, "key-1")
		require.NoError(t, err)

		second, err := store.GetSigningKey(ctx, "key-1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), atomic.LoadInt64(&backend.signingCalls))
	})

	t.Run("Success_DistinctKeyIDsFetchedSeparately", func(t *testing.T) {
		backend := &countingKeyStore{}
		store := NewCachedKeyStore(backend, 16, time.Minute)

		_, err := store.GetSigningKey(ctx, "key-1")
		require.NoError(t, err)
		_, err = store.GetSigningKey(ctx, "key-2")
		require.NoError(t, err)

		assert.Equal(t, int64(2), atomic.LoadInt64(&backend.signingCalls))
	})

	t.Run("Success_ConcurrentLookupsCollapsed", func(t *testing.T) {
		backend := &countingKeyStore{}
		store := NewCachedKeyStore(backend, 16, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.GetSigningKey(ctx, "key-1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// Singleflight plus the cache bound backend fetches well below the
		// number of concurrent callers.
		assert.LessOrEqual(t, atomic.LoadInt64(&backend.signingCalls), int64(20))
		assert.GreaterOrEqual(t, atomic.LoadInt64(&backend.signingCalls), int64(1))
	})

	t.Run("Error_BackendErrorsAreNotCached", func(t *testing.T) {
		backend := &countingKeyStore{failing: true}
		store := NewCachedKeyStore(backend, 16, time.Minute)

		_, err := store.GetSigningKey(ctx, "key-1")
		assert.ErrorIs(t, err, keysDomain.ErrKeyUnavailable)

		_, err = store.GetSigningKey(ctx, "key-1")
		assert.ErrorIs(t, err, keysDomain.ErrKeyUnavailable)

		// Each failed lookup reached the backend again.
		assert.Equal(t, int64(2), atomic.LoadInt64(&backend.signingCalls))
	})
}

func TestCachedKeyStore_GetVerificationKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SecondLookupServedFromCache", func(t *testing.T) {
		backend := &countingKeyStore{}
		store := NewCachedKeyStore(backend, 16, time.Minute)

		_, err := store.GetVerificationKey(ctx, "key-1")
		require.NoError(t, err)
		_, err = store.GetVerificationKey(ctx, "key-1")
		require.NoError(t, err)

		assert.Equal(t, int64(1), atomic.LoadInt64(&backend.verifyCalls))
	})
}

func TestCachedKeyStore_IsAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("DelegatesToBackend", func(t *testing.T) {
		assert.True(t, NewCachedKeyStore(&countingKeyStore{}, 4, time.Minute).IsAvailable(ctx))
		assert.False(t, NewCachedKeyStore(&countingKeyStore{failing: true}, 4, time.Minute).IsAvailable(ctx))
	})
}
