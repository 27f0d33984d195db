package tenancy

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/shared"
)

func TestBuildWhereDeterministicOrder(t *testing.T) {
	var args []any
	where, err := buildWhere(map[string]any{
		"status": "ACTIVE",
		"id":     "c-1",
		"org_id": "org-a",
	}, &args)
	require.NoError(t, err)

	assert.Equal(t, " WHERE id = $1 AND org_id = $2 AND status = $3", where)
	assert.Equal(t, []any{"c-1", "org-a", "ACTIVE"}, args)
}

func TestBuildWhereEmptyFilter(t *testing.T) {
	var args []any
	where, err := buildWhere(nil, &args)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhereRejectsBadIdentifier(t *testing.T) {
	cases := []string{"org_id; DROP TABLE users", "Org", "1col", "a-b", ""}
	for _, col := range cases {
		var args []any
		_, err := buildWhere(map[string]any{col: "x"}, &args)
		assert.Errorf(t, err, "identifier %q must be rejected", col)
	}
}

func TestValidIdent(t *testing.T) {
	require.NoError(t, validIdent("mapping_templates"))
	require.NoError(t, validIdent("org_id"))
	require.Error(t, validIdent("users u JOIN secrets"))
}

func TestTranslatePGErrorMissingOrg(t *testing.T) {
	err := translatePGError(&pgconn.PgError{
		Code:       pgCodeNotNullViolation,
		ColumnName: OrgColumn,
		TableName:  "clients",
	})
	assert.ErrorIs(t, err, shared.ErrMissingOrgID)
}

func TestTranslatePGErrorUniqueViolation(t *testing.T) {
	err := translatePGError(&pgconn.PgError{
		Code:           pgCodeUniqueViolation,
		ConstraintName: "users_email_key",
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestTranslatePGErrorForeignKeyViolation(t *testing.T) {
	err := translatePGError(&pgconn.PgError{
		Code:           pgCodeForeignKeyViolation,
		ConstraintName: "submissions_client_id_fkey",
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestTranslatePGErrorPassthrough(t *testing.T) {
	sentinel := errors.New("boom")
	assert.Same(t, sentinel, translatePGError(sentinel))
}
