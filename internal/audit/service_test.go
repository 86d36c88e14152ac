// AngelaMos | 2026
// service_test.go

package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	logs []*Log
	err  error
}

func (s *stubRepo) Insert(_ context.Context, log *Log) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubRepo) List(context.Context, ListParams) ([]Log, int, error) {
	return nil, 0, s.err
}

func TestRecordWritesEntry(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	svc.Record(context.Background(), Entry{
		ActorID:    "admin-1",
		Action:     ActionPublishRelease,
		EntityType: EntityRelease,
		EntityID:   "rel-1",
		Details:    map[string]any{"slug": "q1-2026"},
	})

	require.Len(t, repo.logs, 1)
	got := repo.logs[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "admin-1", got.ActorID)
	assert.Equal(t, ActionPublishRelease, got.Action)
	assert.Equal(t, EntityRelease, got.EntityType)
	assert.Equal(t, "rel-1", got.EntityID)
	assert.JSONEq(t, `{"slug":"q1-2026"}`, string(got.Details))
}

func TestRecordFailureDoesNotPropagate(t *testing.T) {
	svc := NewService(&stubRepo{err: errors.New("db down")}, nil)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{
			ActorID:    "admin-1",
			Action:     ActionDeleteResearchLine,
			EntityType: EntityResearchLine,
			EntityID:   "line-1",
		})
	})
}

func TestRepositoryListFilters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM audit_logs WHERE TRUE AND entity_type = $1",
	)).
		WithArgs(EntityRelease).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	mock.ExpectQuery(`SELECT id, actor_id, action, entity_type, entity_id, details, created_at\s+FROM audit_logs`).
		WithArgs(EntityRelease, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "actor_id", "action", "entity_type", "entity_id", "details", "created_at",
		}).AddRow("a1", "admin-1", ActionCreateRelease, EntityRelease, "rel-1", []byte(`{}`), now))

	logs, total, err := repo.List(context.Background(), ListParams{EntityType: EntityRelease})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionCreateRelease, logs[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
