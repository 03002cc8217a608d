package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/database"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

// PostgreSQLDecisionLogRepository implements DecisionLog persistence for
// PostgreSQL. The table is append-only: the repository exposes no update or
// delete operation.
type PostgreSQLDecisionLogRepository struct {
	db *sql.DB
}

// Create inserts a new DecisionLog. Roles and metadata are stored as JSON
// columns; nil metadata is stored as NULL.
func (p *PostgreSQLDecisionLogRepository) Create(ctx context.Context, entry *authzDomain.DecisionLog) error {
	querier := database.GetTx(ctx, p.db)

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
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.RequestID,
		entry.PrincipalID,
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
func (p *PostgreSQLDecisionLogRepository) List(
	ctx context.Context,
	input *authzDomain.ListDecisionLogsInput,
) ([]*authzDomain.DecisionLog, error) {
	querier := database.GetTx(ctx, p.db)

	conditions := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if input.PrincipalID != nil {
		args = append(args, *input.PrincipalID)
		conditions = append(conditions, fmt.Sprintf("principal_id = $%d", len(args)))
	}
	if input.Since != nil {
		args = append(args, *input.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if input.Until != nil {
		args = append(args, *input.Until)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, request_id, principal_id, roles, action, resource_type, resource_id,
			  rbac_result, abac_result, final_decision, metadata, signature, created_at
			  FROM decision_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, input.Limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, input.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list decision logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*authzDomain.DecisionLog, 0)
	for rows.Next() {
		entry, err := scanDecisionLog(rows, false)
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

// scanDecisionLog scans one decision log row. The binaryIDs flag selects
// BINARY(16) UUID decoding for MySQL rows.
func scanDecisionLog(rows *sql.Rows, binaryIDs bool) (*authzDomain.DecisionLog, error) {
	var entry authzDomain.DecisionLog
	var rolesJSON, metadataJSON []byte
	var rbacResult, finalDecision string
	var abacResult *string

	if binaryIDs {
		var idBytes, principalIDBytes []byte

		err := rows.Scan(
			&idBytes,
			&entry.RequestID,
			&principalIDBytes,
			&rolesJSON,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&rbacResult,
			&abacResult,
			&finalDecision,
			&metadataJSON,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan decision log")
		}

		if err := entry.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal decision log id")
		}
		if err := entry.PrincipalID.UnmarshalBinary(principalIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
		}
	} else {
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.PrincipalID,
			&rolesJSON,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&rbacResult,
			&abacResult,
			&finalDecision,
			&metadataJSON,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan decision log")
		}
	}

	if err := json.Unmarshal(rolesJSON, &entry.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal decision log roles")
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal decision log metadata")
		}
	}

	entry.RbacResult = authzDomain.Result(rbacResult)
	entry.FinalDecision = authzDomain.Result(finalDecision)
	if abacResult != nil {
		value := authzDomain.AbacResult(*abacResult)
		entry.AbacResult = &value
	}

	return &entry, nil
}

// NewPostgreSQLDecisionLogRepository creates a new PostgreSQL DecisionLog repository.
func NewPostgreSQLDecisionLogRepository(db *sql.DB) *PostgreSQLDecisionLogRepository {
	return &PostgreSQLDecisionLogRepository{db: db}
}
