// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/research-portal/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryCreateUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &User{ID: "u1", Email: "a@example.com", Role: RoleUser, Tier: TierFree})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateTier(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET tier = $2")).
		WithArgs("u1", TierMember).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "display_name", "role", "tier", "created_at", "updated_at",
		}).AddRow("u1", "a@example.com", nil, RoleUser, TierMember, now, now))

	got, err := repo.UpdateTier(context.Background(), "u1", TierMember)
	require.NoError(t, err)
	assert.Equal(t, TierMember, got.Tier)
	assert.Nil(t, got.DisplayName)
	require.NoError(t, mock.ExpectationsWereMet())
}
