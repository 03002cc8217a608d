package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
)

// CachedKeyStore decorates a KeyStore with a bounded-TTL cache to avoid a
// backend round trip per request. Keys are immutable once versioned, so
// population races are harmless: last writer wins. Errors are never cached;
// an unavailable backend is retried on the next lookup.
type CachedKeyStore struct {
	next    KeyStore
	signing *expirable.LRU[string, *keysDomain.SigningKey]
	verify  *expirable.LRU[string, *keysDomain.VerificationKey]
	group   singleflight.Group
}

// NewCachedKeyStore wraps the given store with TTL-bounded caches of the
// given size.
func NewCachedKeyStore(next KeyStore, size int, ttl time.Duration) *CachedKeyStore {
	return &CachedKeyStore{
		next:    next,
		signing: expirable.NewLRU[string, *keysDomain.SigningKey](size, nil, ttl),
		verify:  expirable.NewLRU[string, *keysDomain.VerificationKey](size, nil, ttl),
	}
}

// GetSigningKey returns the cached key or fetches it from the backend.
// Concurrent fetches for the same key ID are collapsed into one.
func (s *CachedKeyStore) GetSigningKey(
	ctx context.Context,
	keyID string,
) (*keysDomain.SigningKey, error) {
	if key, ok := s.signing.Get(keyID); ok {
		return key, nil
	}

	result, err, _ := s.group.Do("signing:"+keyID, func() (any, error) {
		key, err := s.next.GetSigningKey(ctx, keyID)
		if err != nil {
			return nil, err
		}
		s.signing.Add(keyID, key)
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*keysDomain.SigningKey), nil
}

// GetVerificationKey returns the cached key or fetches it from the backend.
func (s *CachedKeyStore) GetVerificationKey(
	ctx context.Context,
	keyID string,
) (*keysDomain.VerificationKey, error) {
	if key, ok := s.verify.Get(keyID); ok {
		return key, nil
	}

	result, err, _ := s.group.Do("verify:"+keyID, func() (any, error) {
		key, err := s.next.GetVerificationKey(ctx, keyID)
		if err != nil {
			return nil, err
		}
		s.verify.Add(keyID, key)
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*keysDomain.VerificationKey), nil
}

// IsAvailable delegates to the backend; availability is never cached.
func (s *CachedKeyStore) IsAvailable(ctx context.Context) bool {
	return s.next.IsAvailable(ctx)
}
