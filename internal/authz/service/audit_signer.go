package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

type auditSigner struct {
	secret []byte
}

// NewAuditSigner creates an HMAC-based decision log signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation. The secret is
// the configured audit signing secret, not a key used for anything else.
func NewAuditSigner(secret []byte) AuditSigner {
	return &auditSigner{secret: secret}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// audit secret. Info parameter: "decision-log-signing-v1" (versioned for
// future algorithm changes).
func (a *auditSigner) deriveSigningKey() ([]byte, error) {
	info := []byte("decision-log-signing-v1")
	hash := sha256.New
	hkdf := hkdf.New(hash, a.secret, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalizeEntry converts a decision log to its canonical byte
// representation for signing. Uses length-prefixed encoding for
// variable-length fields to prevent ambiguity. The signature field itself
// and the row ID are not part of the canonical form.
func (a *auditSigner) canonicalizeEntry(entry *authzDomain.DecisionLog) ([]byte, error) {
	buf := make([]byte, 0, 1024)

	buf = appendLengthPrefixed(buf, []byte(entry.RequestID))

	// UUIDs are fixed 16 bytes
	buf = append(buf, entry.PrincipalID[:]...)

	// Role snapshot as deterministic JSON
	rolesJSON, err := json.Marshal(entry.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roles: %w", err)
	}
	buf = appendLengthPrefixed(buf, rolesJSON)

	buf = appendLengthPrefixed(buf, []byte(entry.Action))
	buf = appendLengthPrefixed(buf, []byte(entry.ResourceType))
	buf = appendLengthPrefixed(buf, []byte(entry.ResourceID))

	buf = appendLengthPrefixed(buf, []byte(string(entry.RbacResult)))
	if entry.AbacResult != nil {
		buf = appendLengthPrefixed(buf, []byte(string(*entry.AbacResult)))
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}
	buf = appendLengthPrefixed(buf, []byte(string(entry.FinalDecision)))

	if entry.Metadata != nil {
		metadataJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataJSON)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	// Timestamp as UnixNano. Entries carry microsecond precision, matching
	// the storage columns, so the value is stable across a round trip.
	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature for the decision log entry.
func (a *auditSigner) Sign(entry *authzDomain.DecisionLog) ([]byte, error) {
	signingKey, err := a.deriveSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := a.canonicalizeEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the stored signature against a freshly computed one.
// Returns nil if valid, ErrDecisionLogSignatureInvalid if tampered.
func (a *auditSigner) Verify(entry *authzDomain.DecisionLog) error {
	expectedSig, err := a.Sign(entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expectedSig) {
		return authzDomain.ErrDecisionLogSignatureInvalid
	}

	return nil
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
