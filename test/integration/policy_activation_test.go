package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wardenauth/warden/internal/app"
	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/testutil"
)

// TestPolicyActivation_Concurrent races several activations of different
// versions of the same policy and checks that exactly one version is active
// afterward, on both database drivers.
func TestPolicyActivation_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbConfigs := []struct {
		name   string
		driver string
		dsn    string
		setup  func(t *testing.T) *sql.DB
	}{
		{
			name:   "PostgreSQL",
			driver: "postgres",
			dsn:    testutil.GetPostgresTestDSN(),
			setup:  testutil.SetupPostgresDB,
		},
		{
			name:   "MySQL",
			driver: "mysql",
			dsn:    testutil.GetMySQLTestDSN(),
			setup:  testutil.SetupMySQLDB,
		},
	}

	for _, dbConfig := range dbConfigs {
		t.Run(dbConfig.name, func(t *testing.T) {
			ctx := context.Background()
			db := dbConfig.setup(t)
			defer testutil.TeardownDB(t, db)

			cfg := integrationTestConfig(dbConfig.driver, dbConfig.dsn)
			container := app.NewContainer(cfg)
			defer func() { require.NoError(t, container.Shutdown(ctx)) }()

			policies, err := container.PolicyUseCase()
			require.NoError(t, err, "failed to get policy use case")

			suffix := uuid.Must(uuid.NewV7()).String()[:8]
			policyKey := "concurrent-activation-" + suffix

			_, err = policies.CreatePolicy(ctx, &authzDomain.CreatePolicyInput{
				Key:  policyKey,
				Name: "Concurrent activation",
			})
			require.NoError(t, err, "failed to create policy")

			const versionCount = 4
			for i := 0; i < versionCount; i++ {
				_, err := policies.CreateVersion(ctx, &authzDomain.CreatePolicyVersionInput{
					PolicyKey: policyKey,
					Effect:    authzDomain.EffectDeny,
					Condition: &authzDomain.Condition{
						Attr:  "environment",
						Op:    "eq",
						Value: fmt.Sprintf("env-%d", i),
					},
					CreatedBy: "activation-test",
				})
				require.NoError(t, err, "failed to create version %d", i+1)
			}

			// Race activations of every version, several callers per
			// version. Row locks serialize the transactions, so each call
			// must succeed and leave its version as the single active one.
			var group errgroup.Group
			for worker := 0; worker < 2*versionCount; worker++ {
				versionNumber := worker%versionCount + 1
				group.Go(func() error {
					return policies.ActivateVersion(ctx, policyKey, versionNumber)
				})
			}
			require.NoError(t, group.Wait(), "concurrent activation failed")

			versions, err := policies.ListVersions(ctx, policyKey)
			require.NoError(t, err)
			require.Len(t, versions, versionCount)

			active := 0
			for _, version := range versions {
				if version.IsActive {
					active++
				}
			}
			assert.Equal(t, 1, active, "exactly one version may be active after racing activations")
		})
	}
}
