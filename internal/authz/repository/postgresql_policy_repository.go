package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// PostgreSQLPolicyRepository implements AbacPolicy and AbacPolicyVersion
// persistence for PostgreSQL. Uses native UUID types with transaction
// support via database.GetTx().
type PostgreSQLPolicyRepository struct {
	db *sql.DB
}

// CreatePolicy inserts a new AbacPolicy. Returns ErrPolicyAlreadyExists
// when the policy key is already taken.
func (p *PostgreSQLPolicyRepository) CreatePolicy(ctx context.Context, policy *authzDomain.AbacPolicy) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO abac_policies (id, key, name, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.Key,
		policy.Name,
		policy.CreatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return authzDomain.ErrPolicyAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create policy")
	}
	return nil
}

// GetPolicyByKey retrieves an AbacPolicy by its key. Returns
// ErrPolicyNotFound if the policy doesn't exist.
func (p *PostgreSQLPolicyRepository) GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	query := `SELECT id, key, name, created_at
			  FROM abac_policies WHERE key = $1`
	return p.getPolicyByKey(ctx, query, key)
}

// GetPolicyByKeyForUpdate retrieves an AbacPolicy by its key and locks its
// row until the surrounding transaction ends. Returns ErrPolicyNotFound if
// the policy doesn't exist.
func (p *PostgreSQLPolicyRepository) GetPolicyByKeyForUpdate(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	query := `SELECT id, key, name, created_at
			  FROM abac_policies WHERE key = $1 FOR UPDATE`
	return p.getPolicyByKey(ctx, query, key)
}

func (p *PostgreSQLPolicyRepository) getPolicyByKey(ctx context.Context, query, key string) (*authzDomain.AbacPolicy, error) {
	querier := database.GetTx(ctx, p.db)

	var policy authzDomain.AbacPolicy

	err := querier.QueryRowContext(ctx, query, key).Scan(
		&policy.ID,
		&policy.Key,
		&policy.Name,
		&policy.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrPolicyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get policy")
	}

	return &policy, nil
}

// ListPolicies retrieves all policies ordered by key.
func (p *PostgreSQLPolicyRepository) ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, key, name, created_at
			  FROM abac_policies ORDER BY key`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	defer func() {
		_ = rows.Close()
	}()

	policies := make([]*authzDomain.AbacPolicy, 0)
	for rows.Next() {
		var policy authzDomain.AbacPolicy
		if err := rows.Scan(&policy.ID, &policy.Key, &policy.Name, &policy.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan policy")
		}
		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate policies")
	}

	return policies, nil
}

// CreateVersion inserts a new AbacPolicyVersion. The condition document is
// stored as a JSON column.
func (p *PostgreSQLPolicyRepository) CreateVersion(ctx context.Context, version *authzDomain.AbacPolicyVersion) error {
	querier := database.GetTx(ctx, p.db)

	conditionJSON, err := json.Marshal(version.Condition)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy condition")
	}

	query := `INSERT INTO abac_policy_versions (id, policy_id, version, effect, condition, is_active, created_at, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		version.ID,
		version.PolicyID,
		version.Version,
		string(version.Effect),
		conditionJSON,
		version.IsActive,
		version.CreatedAt,
		version.CreatedBy,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create policy version")
	}
	return nil
}

// GetVersion retrieves one version of a policy by version number. Returns
// ErrPolicyVersionNotFound if it doesn't exist.
func (p *PostgreSQLPolicyRepository) GetVersion(
	ctx context.Context,
	policyID uuid.UUID,
	versionNumber int,
) (*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, policy_id, version, effect, condition, is_active, created_at, created_by
			  FROM abac_policy_versions
			  WHERE policy_id = $1 AND version = $2`

	return scanPostgreSQLPolicyVersion(querier.QueryRowContext(ctx, query, policyID, versionNumber))
}

// GetActiveVersionByKey retrieves the single active version of the policy
// with the given key. Returns ErrPolicyVersionNotFound when the policy
// doesn't exist or has no active version.
func (p *PostgreSQLPolicyRepository) GetActiveVersionByKey(ctx context.Context, key string) (*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT v.id, v.policy_id, v.version, v.effect, v.condition, v.is_active, v.created_at, v.created_by
			  FROM abac_policy_versions v
			  JOIN abac_policies p ON p.id = v.policy_id
			  WHERE p.key = $1 AND v.is_active`

	return scanPostgreSQLPolicyVersion(querier.QueryRowContext(ctx, query, key))
}

// ListVersions retrieves all versions of a policy ordered by version number.
func (p *PostgreSQLPolicyRepository) ListVersions(ctx context.Context, policyID uuid.UUID) ([]*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, policy_id, version, effect, condition, is_active, created_at, created_by
			  FROM abac_policy_versions
			  WHERE policy_id = $1
			  ORDER BY version`

	rows, err := querier.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policy versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	versions := make([]*authzDomain.AbacPolicyVersion, 0)
	for rows.Next() {
		version, err := scanPostgreSQLPolicyVersionRow(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate policy versions")
	}

	return versions, nil
}

// MaxVersion returns the highest version number recorded for a policy, or 0
// when the policy has no versions yet.
func (p *PostgreSQLPolicyRepository) MaxVersion(ctx context.Context, policyID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COALESCE(MAX(version), 0) FROM abac_policy_versions WHERE policy_id = $1`

	var maxVersion int
	if err := querier.QueryRowContext(ctx, query, policyID).Scan(&maxVersion); err != nil {
		return 0, apperrors.Wrap(err, "failed to get max policy version")
	}

	return maxVersion, nil
}

// DeactivateVersions clears the active flag on every version of a policy.
// Meant to run inside the activation transaction.
func (p *PostgreSQLPolicyRepository) DeactivateVersions(ctx context.Context, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE abac_policy_versions SET is_active = FALSE WHERE policy_id = $1 AND is_active`

	if _, err := querier.ExecContext(ctx, query, policyID); err != nil {
		return apperrors.Wrap(err, "failed to deactivate policy versions")
	}
	return nil
}

// ActivateVersion sets the active flag on one version. Returns
// ErrPolicyVersionNotFound when the version doesn't exist. Meant to run
// inside the activation transaction, after DeactivateVersions.
func (p *PostgreSQLPolicyRepository) ActivateVersion(ctx context.Context, versionID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE abac_policy_versions SET is_active = TRUE WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, versionID)
	if err != nil {
		return apperrors.Wrap(err, "failed to activate policy version")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to count activated policy versions")
	}
	if affected == 0 {
		return authzDomain.ErrPolicyVersionNotFound
	}

	return nil
}

func scanPostgreSQLPolicyVersion(row *sql.Row) (*authzDomain.AbacPolicyVersion, error) {
	var version authzDomain.AbacPolicyVersion
	var effect string
	var conditionJSON []byte

	err := row.Scan(
		&version.ID,
		&version.PolicyID,
		&version.Version,
		&effect,
		&conditionJSON,
		&version.IsActive,
		&version.CreatedAt,
		&version.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrPolicyVersionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get policy version")
	}

	version.Effect = authzDomain.Effect(effect)
	if err := json.Unmarshal(conditionJSON, &version.Condition); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy condition")
	}

	return &version, nil
}

func scanPostgreSQLPolicyVersionRow(rows *sql.Rows) (*authzDomain.AbacPolicyVersion, error) {
	var version authzDomain.AbacPolicyVersion
	var effect string
	var conditionJSON []byte

	err := rows.Scan(
		&version.ID,
		&version.PolicyID,
		&version.Version,
		&effect,
		&conditionJSON,
		&version.IsActive,
		&version.CreatedAt,
		&version.CreatedBy,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan policy version")
	}

	version.Effect = authzDomain.Effect(effect)
	if err := json.Unmarshal(conditionJSON, &version.Condition); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy condition")
	}

	return &version, nil
}

// NewPostgreSQLPolicyRepository creates a new PostgreSQL policy repository.
func NewPostgreSQLPolicyRepository(db *sql.DB) *PostgreSQLPolicyRepository {
	return &PostgreSQLPolicyRepository{db: db}
}
