package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/allisson/go-pwdhash"

	authDomain "github.com/wardenauth/warden/internal/auth/domain"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzUsecase "github.com/wardenauth/warden/internal/authz/usecase"
	apperrors "github.com/wardenauth/warden/internal/errors"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenUsecase "github.com/wardenauth/warden/internal/token/usecase"
)

// authUseCase implements AuthUseCase on top of the principal, token and
// authorization areas.
type authUseCase struct {
	principals        PrincipalStore
	tokens            tokenUsecase.TokenUseCase
	roles             RoleResolver
	authorizer        authzUsecase.AuthorizeUseCase
	passwordHasher    *pwdhash.PasswordHasher
	accessTokenTTL    time.Duration
	maxFailedAttempts int
	lockoutDuration   time.Duration
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	principals PrincipalStore,
	tokens tokenUsecase.TokenUseCase,
	roles RoleResolver,
	authorizer authzUsecase.AuthorizeUseCase,
	accessTokenTTL time.Duration,
	maxFailedAttempts int,
	lockoutDuration time.Duration,
) (AuthUseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &authUseCase{
		principals:        principals,
		tokens:            tokens,
		roles:             roles,
		authorizer:        authorizer,
		passwordHasher:    hasher,
		accessTokenTTL:    accessTokenTTL,
		maxFailedAttempts: maxFailedAttempts,
		lockoutDuration:   lockoutDuration,
	}, nil
}

// SignIn verifies the credential and issues tokens. Every credential problem
// collapses to ErrInvalidCredentials so a caller cannot distinguish an
// unknown email from a wrong password or a disabled account.
func (u *authUseCase) SignIn(ctx context.Context, input *authDomain.SignInInput) (*authDomain.SignInOutput, error) {
	now := time.Now().UTC()
	email := strings.ToLower(strings.TrimSpace(input.Email))

	principal, err := u.principals.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "failed to look up principal")
	}

	if !principal.Enabled {
		return nil, authDomain.ErrInvalidCredentials
	}

	if principal.IsLockedAt(now) {
		return nil, principalDomain.ErrPrincipalLocked
	}

	// Service principals carry no password hash and cannot sign in
	// interactively.
	if principal.Password == "" {
		return nil, authDomain.ErrInvalidCredentials
	}

	ok, err := u.passwordHasher.Verify([]byte(input.Password), principal.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to verify password")
	}
	if !ok {
		if err := u.registerFailedAttempt(ctx, principal, now); err != nil {
			return nil, apperrors.Wrap(err, "failed to record failed sign-in attempt")
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	// A successful sign-in clears any accumulated failure state.
	if principal.FailedAttempts > 0 || principal.LockedUntil != nil {
		if err := u.principals.UpdateLockState(ctx, principal.ID, 0, nil); err != nil {
			return nil, apperrors.Wrap(err, "failed to reset lock state")
		}
	}

	roleNames, err := u.roles.RoleNamesAt(ctx, principal.ID, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to resolve role names")
	}

	accessToken, err := u.tokens.IssueAccess(ctx, principal, roleNames)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue access token")
	}

	output := &authDomain.SignInOutput{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: now.Add(u.accessTokenTTL),
		Principal:            principal,
	}

	if input.RememberMe {
		refreshToken, err := u.tokens.IssueRefresh(ctx, principal)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to issue refresh token")
		}
		output.RefreshToken = refreshToken
	}

	return output, nil
}

// registerFailedAttempt bumps the failure counter. Reaching the configured
// maximum starts a lockout window and resets the counter, so the next window
// starts clean after the lockout expires.
func (u *authUseCase) registerFailedAttempt(ctx context.Context, principal *principalDomain.Principal, now time.Time) error {
	attempts := principal.FailedAttempts + 1
	if attempts >= u.maxFailedAttempts {
		lockedUntil := now.Add(u.lockoutDuration)
		return u.principals.UpdateLockState(ctx, principal.ID, 0, &lockedUntil)
	}
	return u.principals.UpdateLockState(ctx, principal.ID, attempts, nil)
}

// Refresh exchanges a refresh token for a new access token. A lockout does
// not invalidate existing sessions; disabling the principal does.
func (u *authUseCase) Refresh(ctx context.Context, refreshToken string) (*authDomain.RefreshOutput, error) {
	now := time.Now().UTC()

	token, err := u.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	principal, err := u.principals.GetByID(ctx, token.PrincipalID)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "failed to look up principal")
	}

	if !principal.Enabled {
		return nil, authDomain.ErrInvalidCredentials
	}

	roleNames, err := u.roles.RoleNamesAt(ctx, principal.ID, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to resolve role names")
	}

	accessToken, err := u.tokens.IssueAccess(ctx, principal, roleNames)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue access token")
	}

	return &authDomain.RefreshOutput{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: now.Add(u.accessTokenTTL),
	}, nil
}

// Revoke invalidates a refresh token.
func (u *authUseCase) Revoke(ctx context.Context, refreshToken string) error {
	return u.tokens.Revoke(ctx, refreshToken)
}

// GetCurrentUser resolves an access token to its principal. Every failure
// along the way maps to an unauthorized error.
func (u *authUseCase) GetCurrentUser(ctx context.Context, accessToken string) (*principalDomain.Principal, error) {
	claims, err := u.tokens.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token subject")
	}

	principal, err := u.principals.GetByID(ctx, principalID)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "unknown principal")
		}
		return nil, apperrors.Wrap(err, "failed to look up principal")
	}

	if !principal.Enabled {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "principal is disabled")
	}

	return principal, nil
}

// Authorize delegates an access check to the authorization engine.
func (u *authUseCase) Authorize(ctx context.Context, input *authzDomain.AuthorizeInput) (*authzDomain.AuthorizeOutput, error) {
	return u.authorizer.Authorize(ctx, input)
}
