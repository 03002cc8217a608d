package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/wardenauth/warden/internal/config"
	apperrors "github.com/wardenauth/warden/internal/errors"
	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
)

// VaultKeyStore fetches signing key material from a HashiCorp Vault KV store.
//
// Keys live under a configurable base path:
//
//	{secretPath}/{keyID}/private -> {"algorithm": "...", "pem": "..."} or {"secret": base64}
//	{secretPath}/{keyID}/public  -> {"algorithm": "...", "key": base64} or {"secret": base64}
//
// Network and backend errors surface as ErrKeyUnavailable so callers fail
// closed; a missing secret surfaces as ErrKeyNotFound.
type VaultKeyStore struct {
	client     *vault.Client
	secretPath string
}

// IsVaultConfigured reports whether the Vault backend can be used: it must be
// explicitly enabled and carry a non-blank token.
func IsVaultConfigured(cfg *config.Config) bool {
	return cfg.VaultEnabled && cfg.VaultToken != ""
}

// NewVaultKeyStore creates a Vault-backed key store from configuration.
// Connection and read timeouts come from VAULT_TIMEOUT_SECONDS, never
// hardcoded defaults.
func NewVaultKeyStore(cfg *config.Config) (*VaultKeyStore, error) {
	if !IsVaultConfigured(cfg) {
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"vault key store requires VAULT_ENABLED=true and a non-blank VAULT_TOKEN",
		)
	}

	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.VaultAddress
	vaultCfg.Timeout = cfg.VaultTimeout

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create vault client")
	}
	client.SetToken(cfg.VaultToken)

	return &VaultKeyStore{
		client:     client,
		secretPath: cfg.VaultSecretPath,
	}, nil
}

// GetSigningKey reads the private key material for the key ID from Vault.
func (s *VaultKeyStore) GetSigningKey(
	ctx context.Context,
	keyID string,
) (*keysDomain.SigningKey, error) {
	data, err := s.read(ctx, keyID, "private")
	if err != nil {
		return nil, err
	}

	algorithm := readAlgorithm(data)
	key := &keysDomain.SigningKey{
		KeyID:     keyID,
		Algorithm: algorithm,
	}

	switch algorithm {
	case keysDomain.AlgorithmEdDSA:
		pemStr, ok := data["pem"].(string)
		if !ok {
			return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault private key missing pem field")
		}
		private, err := parseEd25519PrivateKeyPEM([]byte(pemStr))
		if err != nil {
			return nil, err
		}
		key.Private = private
	case keysDomain.AlgorithmHS256:
		secret, err := readSecretField(data)
		if err != nil {
			return nil, err
		}
		key.Secret = secret
	default:
		return nil, apperrors.Wrap(
			keysDomain.ErrInvalidKeyMaterial,
			fmt.Sprintf("unsupported algorithm %q", algorithm),
		)
	}

	return key, nil
}

// GetVerificationKey reads the public key material for the key ID from Vault.
func (s *VaultKeyStore) GetVerificationKey(
	ctx context.Context,
	keyID string,
) (*keysDomain.VerificationKey, error) {
	data, err := s.read(ctx, keyID, "public")
	if err != nil {
		return nil, err
	}

	algorithm := readAlgorithm(data)
	key := &keysDomain.VerificationKey{
		KeyID:     keyID,
		Algorithm: algorithm,
	}

	switch algorithm {
	case keysDomain.AlgorithmEdDSA:
		encoded, ok := data["key"].(string)
		if !ok {
			return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault public key missing key field")
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault public key is not valid base64")
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault public key has wrong size")
		}
		key.Public = ed25519.PublicKey(raw)
	case keysDomain.AlgorithmHS256:
		secret, err := readSecretField(data)
		if err != nil {
			return nil, err
		}
		key.Secret = secret
	default:
		return nil, apperrors.Wrap(
			keysDomain.ErrInvalidKeyMaterial,
			fmt.Sprintf("unsupported algorithm %q", algorithm),
		)
	}

	return key, nil
}

// IsAvailable checks backend reachability via the Vault health endpoint.
func (s *VaultKeyStore) IsAvailable(ctx context.Context) bool {
	_, err := s.client.Sys().HealthWithContext(ctx)
	return err == nil
}

// read fetches one secret from {secretPath}/{keyID}/{part} and unwraps the
// KV v2 data envelope when present.
func (s *VaultKeyStore) read(ctx context.Context, keyID, part string) (map[string]any, error) {
	path := fmt.Sprintf("%s/%s/%s", s.secretPath, keyID, part)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		// Backend errors must not degrade to a default key.
		return nil, apperrors.Wrap(keysDomain.ErrKeyUnavailable, err.Error())
	}
	if secret == nil || secret.Data == nil {
		return nil, keysDomain.ErrKeyNotFound
	}

	// KV v2 nests the payload under a "data" key.
	if nested, ok := secret.Data["data"].(map[string]any); ok {
		return nested, nil
	}

	return secret.Data, nil
}

// readAlgorithm extracts the algorithm field, defaulting to EdDSA.
func readAlgorithm(data map[string]any) keysDomain.KeyAlgorithm {
	if raw, ok := data["algorithm"].(string); ok && raw != "" {
		return keysDomain.KeyAlgorithm(raw)
	}
	return keysDomain.AlgorithmEdDSA
}

// readSecretField extracts and decodes the base64 symmetric secret, rejecting
// the well-known placeholder centrally.
func readSecretField(data map[string]any) ([]byte, error) {
	encoded, ok := data["secret"].(string)
	if !ok {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault secret missing secret field")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.Wrap(keysDomain.ErrInvalidKeyMaterial, "vault secret is not valid base64")
	}
	if keysDomain.IsPlaceholderSecret(string(raw)) {
		return nil, keysDomain.ErrKeyNotFound
	}
	return raw, nil
}
