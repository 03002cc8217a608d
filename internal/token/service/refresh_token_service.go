package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/wardenauth/warden/internal/errors"
)

// refreshTokenService implements RefreshTokenService using SHA-256 hashing.
type refreshTokenService struct{}

// NewRefreshTokenService creates a new RefreshTokenService instance.
func NewRefreshTokenService() RefreshTokenService {
	return &refreshTokenService{}
}

// Generate creates a new cryptographically secure 32-byte random token.
// The token is base64 URL-encoded for easy transmission and storage.
// Returns the plain token and its SHA-256 hash.
func (r *refreshTokenService) Generate() (plainToken string, tokenHash string, err error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken = base64.URLEncoding.EncodeToString(randomBytes)
	tokenHash = r.Hash(plainToken)

	return plainToken, tokenHash, nil
}

// Hash hashes a plain refresh token using SHA-256.
// Returns the hash as a hexadecimal string.
func (r *refreshTokenService) Hash(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
