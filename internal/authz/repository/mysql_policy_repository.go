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

// MySQLPolicyRepository implements AbacPolicy and AbacPolicyVersion
// persistence for MySQL. Uses BINARY(16) for UUIDs with transaction support
// via database.GetTx(). The key column is backtick-quoted because KEY is a
// reserved word in MySQL.
type MySQLPolicyRepository struct {
	db *sql.DB
}

// CreatePolicy inserts a new AbacPolicy. Returns ErrPolicyAlreadyExists
// when the policy key is already taken.
func (m *MySQLPolicyRepository) CreatePolicy(ctx context.Context, policy *authzDomain.AbacPolicy) error {
	querier := database.GetTx(ctx, m.db)

	id, err := policy.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := "INSERT INTO abac_policies (id, `key`, name, created_at) VALUES (?, ?, ?, ?)"

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		policy.Key,
		policy.Name,
		policy.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return authzDomain.ErrPolicyAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create policy")
	}
	return nil
}

// GetPolicyByKey retrieves an AbacPolicy by its key. Returns
// ErrPolicyNotFound if the policy doesn't exist.
func (m *MySQLPolicyRepository) GetPolicyByKey(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	query := "SELECT id, `key`, name, created_at FROM abac_policies WHERE `key` = ?"
	return m.getPolicyByKey(ctx, query, key)
}

// GetPolicyByKeyForUpdate retrieves an AbacPolicy by its key and locks its
// row until the surrounding transaction ends. Returns ErrPolicyNotFound if
// the policy doesn't exist.
func (m *MySQLPolicyRepository) GetPolicyByKeyForUpdate(ctx context.Context, key string) (*authzDomain.AbacPolicy, error) {
	query := "SELECT id, `key`, name, created_at FROM abac_policies WHERE `key` = ? FOR UPDATE"
	return m.getPolicyByKey(ctx, query, key)
}

func (m *MySQLPolicyRepository) getPolicyByKey(ctx context.Context, query, key string) (*authzDomain.AbacPolicy, error) {
	querier := database.GetTx(ctx, m.db)

	var policy authzDomain.AbacPolicy
	var idBytes []byte

	err := querier.QueryRowContext(ctx, query, key).Scan(
		&idBytes,
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

	if err := policy.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
	}

	return &policy, nil
}

// ListPolicies retrieves all policies ordered by key.
func (m *MySQLPolicyRepository) ListPolicies(ctx context.Context) ([]*authzDomain.AbacPolicy, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, `key`, name, created_at FROM abac_policies ORDER BY `key`"

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
		var idBytes []byte

		if err := rows.Scan(&idBytes, &policy.Key, &policy.Name, &policy.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan policy")
		}
		if err := policy.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
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
func (m *MySQLPolicyRepository) CreateVersion(ctx context.Context, version *authzDomain.AbacPolicyVersion) error {
	querier := database.GetTx(ctx, m.db)

	id, err := version.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy version id")
	}

	policyID, err := version.PolicyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	conditionJSON, err := json.Marshal(version.Condition)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy condition")
	}

	query := `INSERT INTO abac_policy_versions (id, policy_id, version, effect, ` + "`condition`" + `, is_active, created_at, created_by)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		policyID,
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
func (m *MySQLPolicyRepository) GetVersion(
	ctx context.Context,
	policyID uuid.UUID,
	versionNumber int,
) (*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, m.db)

	policyIDBytes, err := policyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `SELECT id, policy_id, version, effect, ` + "`condition`" + `, is_active, created_at, created_by
			  FROM abac_policy_versions
			  WHERE policy_id = ? AND version = ?`

	return scanMySQLPolicyVersion(querier.QueryRowContext(ctx, query, policyIDBytes, versionNumber))
}

// GetActiveVersionByKey retrieves the single active version of the policy
// with the given key. Returns ErrPolicyVersionNotFound when the policy
// doesn't exist or has no active version.
func (m *MySQLPolicyRepository) GetActiveVersionByKey(ctx context.Context, key string) (*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT v.id, v.policy_id, v.version, v.effect, v.` + "`condition`" + `, v.is_active, v.created_at, v.created_by
			  FROM abac_policy_versions v
			  JOIN abac_policies p ON p.id = v.policy_id
			  WHERE p.` + "`key`" + ` = ? AND v.is_active`

	return scanMySQLPolicyVersion(querier.QueryRowContext(ctx, query, key))
}

// ListVersions retrieves all versions of a policy ordered by version number.
func (m *MySQLPolicyRepository) ListVersions(ctx context.Context, policyID uuid.UUID) ([]*authzDomain.AbacPolicyVersion, error) {
	querier := database.GetTx(ctx, m.db)

	policyIDBytes, err := policyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `SELECT id, policy_id, version, effect, ` + "`condition`" + `, is_active, created_at, created_by
			  FROM abac_policy_versions
			  WHERE policy_id = ?
			  ORDER BY version`

	rows, err := querier.QueryContext(ctx, query, policyIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policy versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	versions := make([]*authzDomain.AbacPolicyVersion, 0)
	for rows.Next() {
		version, err := scanMySQLPolicyVersionRow(rows)
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
func (m *MySQLPolicyRepository) MaxVersion(ctx context.Context, policyID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, m.db)

	policyIDBytes, err := policyID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `SELECT COALESCE(MAX(version), 0) FROM abac_policy_versions WHERE policy_id = ?`

	var maxVersion int
	if err := querier.QueryRowContext(ctx, query, policyIDBytes).Scan(&maxVersion); err != nil {
		return 0, apperrors.Wrap(err, "failed to get max policy version")
	}

	return maxVersion, nil
}

// DeactivateVersions clears the active flag on every version of a policy.
// Meant to run inside the activation transaction.
func (m *MySQLPolicyRepository) DeactivateVersions(ctx context.Context, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	policyIDBytes, err := policyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `UPDATE abac_policy_versions SET is_active = FALSE WHERE policy_id = ? AND is_active`

	if _, err := querier.ExecContext(ctx, query, policyIDBytes); err != nil {
		return apperrors.Wrap(err, "failed to deactivate policy versions")
	}
	return nil
}

// ActivateVersion sets the active flag on one version. Returns
// ErrPolicyVersionNotFound when the version doesn't exist. Meant to run
// inside the activation transaction, after DeactivateVersions.
func (m *MySQLPolicyRepository) ActivateVersion(ctx context.Context, versionID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	versionIDBytes, err := versionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy version id")
	}

	query := `UPDATE abac_policy_versions SET is_active = TRUE WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, versionIDBytes)
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

func scanMySQLPolicyVersion(row *sql.Row) (*authzDomain.AbacPolicyVersion, error) {
	var version authzDomain.AbacPolicyVersion
	var effect string
	var idBytes, policyIDBytes, conditionJSON []byte

	err := row.Scan(
		&idBytes,
		&policyIDBytes,
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

	return finishMySQLPolicyVersion(&version, effect, idBytes, policyIDBytes, conditionJSON)
}

func scanMySQLPolicyVersionRow(rows *sql.Rows) (*authzDomain.AbacPolicyVersion, error) {
	var version authzDomain.AbacPolicyVersion
	var effect string
	var idBytes, policyIDBytes, conditionJSON []byte

	err := rows.Scan(
		&idBytes,
		&policyIDBytes,
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

	return finishMySQLPolicyVersion(&version, effect, idBytes, policyIDBytes, conditionJSON)
}

func finishMySQLPolicyVersion(
	version *authzDomain.AbacPolicyVersion,
	effect string,
	idBytes, policyIDBytes, conditionJSON []byte,
) (*authzDomain.AbacPolicyVersion, error) {
	if err := version.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy version id")
	}
	if err := version.PolicyID.UnmarshalBinary(policyIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
	}

	version.Effect = authzDomain.Effect(effect)
	if err := json.Unmarshal(conditionJSON, &version.Condition); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy condition")
	}

	return version, nil
}

// NewMySQLPolicyRepository creates a new MySQL policy repository.
func NewMySQLPolicyRepository(db *sql.DB) *MySQLPolicyRepository {
	return &MySQLPolicyRepository{db: db}
}
