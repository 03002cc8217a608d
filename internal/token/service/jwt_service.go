package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wardenauth/warden/internal/config"
	apperrors "github.com/wardenauth/warden/internal/errors"
	keysDomain "github.com/wardenauth/warden/internal/keys/domain"
	keysService "github.com/wardenauth/warden/internal/keys/service"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

// jwtService implements AccessTokenService using golang-jwt with key material
// from the key store.
type jwtService struct {
	config   *config.Config
	keyStore keysService.KeyStore
}

// NewAccessTokenService creates an AccessTokenService backed by the given key store.
func NewAccessTokenService(cfg *config.Config, keyStore keysService.KeyStore) AccessTokenService {
	return &jwtService{
		config:   cfg,
		keyStore: keyStore,
	}
}

// signingMethod maps a key algorithm to its JWT signing method.
func signingMethod(alg keysDomain.KeyAlgorithm) jwt.SigningMethod {
	if alg == keysDomain.AlgorithmHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

// Issue creates an access token signed with the configured signing key.
// Key unavailability surfaces as-is so callers fail closed.
func (s *jwtService) Issue(
	ctx context.Context,
	principal *principalDomain.Principal,
	roles []string,
) (string, error) {
	key, err := s.keyStore.GetSigningKey(ctx, s.config.SigningKeyID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := &tokenDomain.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID.String(),
			Issuer:    s.config.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiration)),
			ID:        uuid.Must(uuid.NewV7()).String(),
		},
		PrincipalType: string(principal.Type),
		Roles:         roles,
	}

	token := jwt.NewWithClaims(signingMethod(key.Algorithm), claims)
	token.Header["kid"] = key.KeyID

	signed, err := token.SignedString(key.SignerKey())
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// Validate parses and verifies an access token.
//
// The key is resolved from the token's kid header via the key store; the
// signing method must match the resolved key's algorithm, so a token cannot
// downgrade an asymmetric key to HMAC verification. Failure reasons stay
// distinct for telemetry: malformed, expired, bad signature, unknown key,
// and key backend unavailable each map to a different domain error.
func (s *jwtService) Validate(ctx context.Context, tokenString string) (*tokenDomain.AccessClaims, error) {
	claims := &tokenDomain.AccessClaims{}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodEdDSA.Alg(),
			jwt.SigningMethodHS256.Alg(),
		}),
		jwt.WithExpirationRequired(),
	}
	if s.config.TokenIssuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.config.TokenIssuer))
	}

	keyFunc := func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, tokenDomain.ErrTokenUnknownKey
		}

		key, err := s.keyStore.GetVerificationKey(ctx, kid)
		if err != nil {
			if apperrors.Is(err, keysDomain.ErrKeyNotFound) {
				return nil, tokenDomain.ErrTokenUnknownKey
			}
			// Backend unavailable: fail closed, never substitute a key.
			return nil, err
		}

		if token.Method.Alg() != signingMethod(key.Algorithm).Alg() {
			return nil, tokenDomain.ErrTokenSignatureInvalid
		}

		return key.VerifierKey(), nil
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, keyFunc, parserOpts...)
	if err != nil {
		return nil, mapJWTError(err)
	}

	return claims, nil
}

// mapJWTError translates golang-jwt errors into domain errors, preserving
// errors that are already domain-typed (key store failures in particular).
func mapJWTError(err error) error {
	switch {
	case apperrors.Is(err, keysDomain.ErrKeyUnavailable),
		apperrors.Is(err, tokenDomain.ErrTokenUnknownKey),
		apperrors.Is(err, tokenDomain.ErrTokenSignatureInvalid):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return tokenDomain.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return tokenDomain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return tokenDomain.ErrTokenSignatureInvalid
	default:
		return apperrors.Wrap(apperrors.ErrUnauthorized, err.Error())
	}
}
