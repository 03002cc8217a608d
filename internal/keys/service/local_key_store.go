package service

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/wardenauth/warden/internal/config"
	apperrors "github.com/wardenauth/warden/internal/errors"
	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
)

// LocalKeyStore serves signing keys supplied via configuration at startup.
// It holds an Ed25519 key pair parsed from PEM, a symmetric secret, or both
// under distinct key IDs, plus retired keys that verify but never sign.
// Key material never leaves process memory.
type LocalKeyStore struct {
	keys    map[string]*keysDomain.SigningKey
	retired map[string]*keysDomain.VerificationKey
}

// NewLocalKeyStore builds a LocalKeyStore from configuration.
//
// The well-known placeholder secret is rejected here, centrally: a store
// configured only with the placeholder holds no symmetric key at all, so
// lookups return ErrKeyNotFound rather than the default value. This prevents
// a shared development secret from ever validating production tokens.
func NewLocalKeyStore(cfg *config.Config) (*LocalKeyStore, error) {
	store := &LocalKeyStore{
		keys:    make(map[string]*keysDomain.SigningKey),
		retired: make(map[string]*keysDomain.VerificationKey),
	}

	if cfg.LocalSigningKeyPEM != "" {
		if cfg.SigningKeyID == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "SIGNING_KEY_ID is required with LOCAL_SIGNING_KEY_PEM")
		}
		private, err := parseEd25519PrivateKeyPEM([]byte(cfg.LocalSigningKeyPEM))
		if err != nil {
			return nil, err
		}
		store.keys[cfg.SigningKeyID] = &keysDomain.SigningKey{
			KeyID:     cfg.SigningKeyID,
			Algorithm: keysDomain.AlgorithmEdDSA,
			Private:   private,
		}
	}

	// Placeholder secrets are treated as absent, not as a weak key.
	if cfg.LocalSigningSecret != "" && !keysDomain.IsPlaceholderSecret(cfg.LocalSigningSecret) {
		keyID := cfg.SigningKeyID
		if keyID == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "SIGNING_KEY_ID is required with LOCAL_SIGNING_SECRET")
		}
		if _, exists := store.keys[keyID]; !exists {
			store.keys[keyID] = &keysDomain.SigningKey{
				KeyID:     keyID,
				Algorithm: keysDomain.AlgorithmHS256,
				Secret:    []byte(cfg.LocalSigningSecret),
			}
		}
	}

	// Retired keys verify outstanding tokens across a rotation; they are
	// never offered for signing. Removing an entry retires the key ID.
	retired, err := parseRetiredKeys(cfg.LocalRetiredSigningKeys)
	if err != nil {
		return nil, err
	}
	for keyID, key := range retired {
		if _, exists := store.keys[keyID]; exists {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "retired key ID collides with the active signing key: "+keyID)
		}
		store.retired[keyID] = key
	}

	return store, nil
}

// parseRetiredKeys parses LOCAL_RETIRED_SIGNING_KEYS: comma-separated
// keyID=material pairs, where material is either a symmetric secret or a
// base64-encoded PEM Ed25519 public key.
func parseRetiredKeys(spec string) (map[string]*keysDomain.VerificationKey, error) {
	keys := make(map[string]*keysDomain.VerificationKey)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		keyID, material, found := strings.Cut(entry, "=")
		keyID = strings.TrimSpace(keyID)
		material = strings.TrimSpace(material)
		if !found || keyID == "" || material == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "retired signing keys must be keyID=material pairs")
		}
		if _, exists := keys[keyID]; exists {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "duplicate retired key ID: "+keyID)
		}

		if pemBytes, err := base64.StdEncoding.DecodeString(material); err == nil {
			if public, err := parseEd25519PublicKeyPEM(pemBytes); err == nil {
				keys[keyID] = &keysDomain.VerificationKey{
					KeyID:     keyID,
					Algorithm: keysDomain.AlgorithmEdDSA,
					Public:    public,
				}
				continue
			}
		}

		if keysDomain.IsPlaceholderSecret(material) {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "retired key uses the placeholder secret: "+keyID)
		}
		keys[keyID] = &keysDomain.VerificationKey{
			KeyID:     keyID,
			Algorithm: keysDomain.AlgorithmHS256,
			Secret:    []byte(material),
		}
	}

	return keys, nil
}

// GetSigningKey returns the configured key for the key ID.
func (s *LocalKeyStore) GetSigningKey(
	_ context.Context,
	keyID string,
) (*keysDomain.SigningKey, error) {
	key, ok := s.keys[keyID]
	if !ok {
		return nil, keysDomain.ErrKeyNotFound
	}
	return key, nil
}

// GetVerificationKey returns the verification material for the key ID.
// For Ed25519 keys this is the derived public key; for symmetric keys the
// secret itself is the verification material. Retired keys are served here
// and only here.
func (s *LocalKeyStore) GetVerificationKey(
	_ context.Context,
	keyID string,
) (*keysDomain.VerificationKey, error) {
	key, ok := s.keys[keyID]
	if !ok {
		if retiredKey, retiredOK := s.retired[keyID]; retiredOK {
			return retiredKey, nil
		}
		return nil, keysDomain.ErrKeyNotFound
	}

	verification := &keysDomain.VerificationKey{
		KeyID:     key.KeyID,
		Algorithm: key.Algorithm,
	}
	switch key.Algorithm {
	case keysDomain.AlgorithmEdDSA:
		verification.Public = key.Private.Public().(ed25519.PublicKey)
	case keysDomain.AlgorithmHS256:
		verification.Secret = key.Secret
	}

	return verification, nil
}

// IsAvailable reports whether the store holds at least one usable key.
func (s *LocalKeyStore) IsAvailable(_ context.Context) bool {
	return len(s.keys) > 0 || len(s.retired) > 0
}

// parseEd25519PrivateKeyPEM parses a PKCS#8 PEM-encoded Ed25519 private key.
func parseEd25519PrivateKeyPEM(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "no PEM block found")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, err.Error())
	}

	private, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "key is not an Ed25519 private key")
	}

	return private, nil
}

// parseEd25519PublicKeyPEM parses a PKIX PEM-encoded Ed25519 public key.
func parseEd25519PublicKeyPEM(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "no PEM block found")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, err.Error())
	}

	public, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "key is not an Ed25519 public key")
	}

	return public, nil
}
