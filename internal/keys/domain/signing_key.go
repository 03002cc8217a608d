// Package domain defines signing key domain models.
//
// Private key material is owned exclusively by the keys module: it is loaded
// here, handed to the token service for signing, and never serialized or
// logged. Public material is shareable for verification.
package domain

import (
	"crypto/ed25519"
)

// KeyAlgorithm identifies the signature algorithm a key is used with.
type KeyAlgorithm string

const (
	// AlgorithmEdDSA is Ed25519 signing (asymmetric, PEM-configured or Vault-backed).
	AlgorithmEdDSA KeyAlgorithm = "EdDSA"

	// AlgorithmHS256 is HMAC-SHA256 signing (symmetric secret).
	AlgorithmHS256 KeyAlgorithm = "HS256"
)

// PlaceholderSecret is the well-known development secret shipped in examples
// and docker-compose files. It is rejected centrally by every key store:
// a store configured with it behaves as if no secret was configured at all.
const PlaceholderSecret = "warden-dev-secret-do-not-use"

// IsPlaceholderSecret reports whether the given secret is the well-known
// development placeholder.
func IsPlaceholderSecret(secret string) bool {
	return secret == PlaceholderSecret
}

// SigningKey holds the private material for one key identifier.
// Exactly one of Private or Secret is set, depending on Algorithm.
type SigningKey struct {
	KeyID     string
	Algorithm KeyAlgorithm
	Private   ed25519.PrivateKey // set for EdDSA keys
	Secret    []byte             // set for HS256 keys
}

// SignerKey returns the key material in the shape the JWT signing method expects.
func (k *SigningKey) SignerKey() any {
	if k.Algorithm == AlgorithmHS256 {
		return k.Secret
	}
	return k.Private
}

// VerificationKey holds the shareable material used to verify signatures
// produced by the signing key with the same KeyID.
type VerificationKey struct {
	KeyID     string
	Algorithm KeyAlgorithm
	Public    ed25519.PublicKey // set for EdDSA keys
	Secret    []byte            // set for HS256 keys (symmetric: same material)
}

// VerifierKey returns the key material in the shape the JWT parsing method expects.
func (k *VerificationKey) VerifierKey() any {
	if k.Algorithm == AlgorithmHS256 {
		return k.Secret
	}
	return k.Public
}
