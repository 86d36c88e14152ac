// AngelaMos | 2026
// repository_test.go

package subscription

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var subColumns = []string{"user_id", "research_line_id", "is_active", "subscribed_at", "unsubscribed_at"}

func TestUpsertUsesConflictClause(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id, research_line_id) DO UPDATE")).
		WithArgs("u1", "line-1").
		WillReturnRows(sqlmock.NewRows(subColumns).AddRow("u1", "line-1", true, now, nil))

	sub, err := repo.Upsert(context.Background(), "u1", "line-1")
	require.NoError(t, err)
	assert.True(t, sub.IsActive)
	assert.Nil(t, sub.UnsubscribedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateMissingRowDoesNotInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE research_line_subscriptions")).
		WithArgs("u1", "line-1").
		WillReturnError(sql.ErrNoRows)

	sub, err := repo.Deactivate(context.Background(), "u1", "line-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsActive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs("u1", "line-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	active, err := repo.IsActive(context.Background(), "u1", "line-1")
	require.NoError(t, err)
	assert.False(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}
