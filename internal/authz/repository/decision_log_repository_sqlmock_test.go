package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
)

// Driver-level tests with sqlmock, covering SQL error paths and row decoding
// that the live-database tests cannot force.

func TestPostgreSQLDecisionLogRepository_Create_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO decision_logs").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgreSQLDecisionLogRepository(db)
	entry := &authzDomain.DecisionLog{
		ID:            uuid.Must(uuid.NewV7()),
		RequestID:     "req-1",
		PrincipalID:   uuid.Must(uuid.NewV7()),
		Roles:         []string{"auditor"},
		Action:        "invoices:read",
		RbacResult:    authzDomain.ResultAllow,
		FinalDecision: authzDomain.ResultAllow,
		Signature:     []byte("sig"),
		CreatedAt:     time.Now().UTC(),
	}

	err = repo.Create(context.Background(), entry)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create decision log")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLDecisionLogRepository_List_DecodesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entryID := uuid.Must(uuid.NewV7())
	principalID := uuid.Must(uuid.NewV7())
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	rows := sqlmock.NewRows([]string{
		"id", "request_id", "principal_id", "roles", "action",
		"resource_type", "resource_id", "rbac_result", "abac_result",
		"final_decision", "metadata", "signature", "created_at",
	}).AddRow(
		entryID.String(), "req-1", principalID.String(), []byte(`["auditor"]`), "invoices:read",
		"invoice", "inv-1", "ALLOW", "DENY",
		"DENY", []byte(`{"ip":"10.0.0.1"}`), []byte("sig"), createdAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM decision_logs").WillReturnRows(rows)

	repo := NewPostgreSQLDecisionLogRepository(db)
	entries, err := repo.List(context.Background(), &authzDomain.ListDecisionLogsInput{Limit: 10})

	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, entryID, entry.ID)
	assert.Equal(t, principalID, entry.PrincipalID)
	assert.Equal(t, []string{"auditor"}, entry.Roles)
	assert.Equal(t, authzDomain.ResultAllow, entry.RbacResult)
	require.NotNil(t, entry.AbacResult)
	assert.Equal(t, authzDomain.AbacDeny, *entry.AbacResult)
	assert.Equal(t, authzDomain.ResultDeny, entry.FinalDecision)
	assert.Equal(t, "10.0.0.1", entry.Metadata["ip"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLDecisionLogRepository_List_CorruptRolesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{
		"id", "request_id", "principal_id", "roles", "action",
		"resource_type", "resource_id", "rbac_result", "abac_result",
		"final_decision", "metadata", "signature", "created_at",
	}).AddRow(
		uuid.Must(uuid.NewV7()).String(), "req-1", uuid.Must(uuid.NewV7()).String(),
		[]byte(`{not json`), "invoices:read",
		"", "", "ALLOW", nil,
		"ALLOW", nil, []byte("sig"), time.Now().UTC(),
	)

	mock.ExpectQuery("SELECT (.+) FROM decision_logs").WillReturnRows(rows)

	repo := NewPostgreSQLDecisionLogRepository(db)
	_, err = repo.List(context.Background(), &authzDomain.ListDecisionLogsInput{Limit: 10})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal decision log roles")
}

func TestPostgreSQLDecisionLogRepository_List_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT (.+) FROM decision_logs").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgreSQLDecisionLogRepository(db)
	_, err = repo.List(context.Background(), &authzDomain.ListDecisionLogsInput{Limit: 10})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list decision logs")
}
