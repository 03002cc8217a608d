package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	tokenDomain "github.com/wardenauth/warden/internal/token/domain"
)

type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) IssueAccess(ctx context.Context, principal *principalDomain.Principal, roles []string) (string, error) {
	args := m.Called(ctx, principal, roles)
	return args.String(0), args.Error(1)
}

func (m *mockTokenUseCase) ValidateAccess(ctx context.Context, token string) (*tokenDomain.AccessClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.AccessClaims), args.Error(1)
}

func (m *mockTokenUseCase) IssueRefresh(ctx context.Context, principal *principalDomain.Principal) (string, error) {
	args := m.Called(ctx, principal)
	return args.String(0), args.Error(1)
}

func (m *mockTokenUseCase) ValidateRefresh(ctx context.Context, plainToken string) (*tokenDomain.RefreshToken, error) {
	args := m.Called(ctx, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.RefreshToken), args.Error(1)
}

func (m *mockTokenUseCase) Revoke(ctx context.Context, plainToken string) error {
	args := m.Called(ctx, plainToken)
	return args.Error(0)
}

func (m *mockTokenUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockDecisionLogUseCase struct {
	mock.Mock
}

func (m *mockDecisionLogUseCase) List(ctx context.Context, input *authzDomain.ListDecisionLogsInput) ([]*authzDomain.DecisionLog, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authzDomain.DecisionLog), args.Error(1)
}

func (m *mockDecisionLogUseCase) Verify(ctx context.Context, input *authzDomain.ListDecisionLogsInput) (*authzDomain.VerifyDecisionLogsOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.VerifyDecisionLogsOutput), args.Error(1)
}

type mockPrincipalUseCase struct {
	mock.Mock
}

func (m *mockPrincipalUseCase) Provision(ctx context.Context, input principalDomain.ProvisionPrincipalInput) (*principalDomain.Principal, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) GetByID(ctx context.Context, id uuid.UUID) (*principalDomain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) GetByEmail(ctx context.Context, email string) (*principalDomain.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func (m *mockPrincipalUseCase) Unlock(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockRoleUseCase struct {
	mock.Mock
}

func (m *mockRoleUseCase) CreateRole(ctx context.Context, input *authzDomain.CreateRoleInput) (*authzDomain.Role, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Role), args.Error(1)
}

func (m *mockRoleUseCase) GetRole(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Role), args.Error(1)
}

func (m *mockRoleUseCase) GetRoleByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Role), args.Error(1)
}

func (m *mockRoleUseCase) ListRoles(ctx context.Context) ([]*authzDomain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authzDomain.Role), args.Error(1)
}

func (m *mockRoleUseCase) AssignRole(ctx context.Context, input *authzDomain.AssignRoleInput) (*authzDomain.RoleAssignment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.RoleAssignment), args.Error(1)
}

func (m *mockRoleUseCase) EndAssignment(ctx context.Context, assignmentID uuid.UUID, at *time.Time) error {
	args := m.Called(ctx, assignmentID, at)
	return args.Error(0)
}

type mockPolicyUseCase struct {
	mock.Mock
}

func (m *mockPolicyUseCase) CreatePolicy(ctx context.Context, input *authzDomain.CreatePolicyInput) (*authzDomain.AbacPolicy, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.AbacPolicy), args.Error(1)
}

func (m *mockPolicyUseCase) GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.AbacPolicy), args.Error(1)
}

func (m *mockPolicyUseCase) ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authzDomain.AbacPolicy), args.Error(1)
}

func (m *mockPolicyUseCase) CreateVersion(ctx context.Context, input *authzDomain.CreatePolicyVersionInput) (*authzDomain.AbacPolicyVersion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.AbacPolicyVersion), args.Error(1)
}

func (m *mockPolicyUseCase) ListVersions(ctx context.Context, policyKey string) ([]*authzDomain.AbacPolicyVersion, error) {
	args := m.Called(ctx, policyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authzDomain.AbacPolicyVersion), args.Error(1)
}

func (m *mockPolicyUseCase) ActivateVersion(ctx context.Context, policyKey string, versionNumber int) error {
	args := m.Called(ctx, policyKey, versionNumber)
	return args.Error(0)
}
