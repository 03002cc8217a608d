package usecase

import (
	"context"
	"time"

	authDomain "github.com/wardenauth/warden/internal/auth/domain"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/metrics"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *authUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

func (a *authUseCaseWithMetrics) SignIn(ctx context.Context, input *authDomain.SignInInput) (*authDomain.SignInOutput, error) {
	start := time.Now()
	output, err := a.next.SignIn(ctx, input)
	a.record(ctx, "sign_in", start, err)
	return output, err
}

func (a *authUseCaseWithMetrics) Refresh(ctx context.Context, refreshToken string) (*authDomain.RefreshOutput, error) {
	start := time.Now()
	output, err := a.next.Refresh(ctx, refreshToken)
	a.record(ctx, "refresh", start, err)
	return output, err
}

func (a *authUseCaseWithMetrics) Revoke(ctx context.Context, refreshToken string) error {
	start := time.Now()
	err := a.next.Revoke(ctx, refreshToken)
	a.record(ctx, "revoke", start, err)
	return err
}

func (a *authUseCaseWithMetrics) GetCurrentUser(ctx context.Context, accessToken string) (*principalDomain.Principal, error) {
	start := time.Now()
	principal, err := a.next.GetCurrentUser(ctx, accessToken)
	a.record(ctx, "get_current_user", start, err)
	return principal, err
}

func (a *authUseCaseWithMetrics) Authorize(ctx context.Context, input *authzDomain.AuthorizeInput) (*authzDomain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.Authorize(ctx, input)
	a.record(ctx, "authorize", start, err)
	return output, err
}
