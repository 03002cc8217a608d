package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// MySQLDecisionLogRepository implements DecisionLog persistence for MySQL.
// The table is append-only: the repository exposes no update or delete
// operation.
type MySQLDecisionLogRepository struct {
	db *sql.DB
}

// Create inserts a new DecisionLog using BINARY(16) for UUIDs. Roles and
// metadata are stored as JSON columns; nil metadata is stored as NULL.
func (m *MySQLDecisionLogRepository) Create(ctx context.Context, entry *authzDomain.DecisionLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal decision log id")
	}

	principalID, err := entry.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	rolesJSON, err := json.Marshal(entry.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal decision log roles")
	}

	var metadataJSON []byte
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal decision log metadata")
		}
	}

	var abacResult *string
	if entry.AbacResult != nil {
		value := string(*entry.AbacResult)
		abacResult = &value
	}

	query := `INSERT INTO decision_logs
			  (id, request_id, principal_id, roles, action, resource_type, resource_id,
			   rbac_result, abac_result, final_decision, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		entry.RequestID,
		principalID,
		rolesJSON,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		string(entry.RbacResult),
		abacResult,
		string(entry.FinalDecision),
		metadataJSON,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create decision log")
	}
	return nil
}

// List retrieves decision logs matching the filter, newest first. Filters
// are combined with AND; zero filters list everything paginated.
func (m *MySQLDecisionLogRepository) List(
	ctx context.Context,
	input *authzDomain.ListDecisionLogsInput,
) ([]*authzDomain.DecisionLog, error) {
	querier := database.GetTx(ctx, m.db)

	conditions := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if input.PrincipalID != nil {
		principalIDBytes, err := input.PrincipalID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal principal id")
		}
		conditions = append(conditions, "principal_id = ?")
		args = append(args, principalIDBytes)
	}
	if input.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *input.Since)
	}
	if input.Until != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *input.Until)
	}

	query := `SELECT id, request_id, principal_id, roles, action, resource_type, resource_id,
			  rbac_result, abac_result, final_decision, metadata, signature, created_at
			  FROM decision_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, input.Limit, input.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list decision logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*authzDomain.DecisionLog, 0)
	for rows.Next() {
		entry, err := scanDecisionLog(rows, true)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate decision logs")
	}

	return entries, nil
}

// NewMySQLDecisionLogRepository creates a new MySQL DecisionLog repository.
func NewMySQLDecisionLogRepository(db *sql.DB) *MySQLDecisionLogRepository {
	return &MySQLDecisionLogRepository{db: db}
}
