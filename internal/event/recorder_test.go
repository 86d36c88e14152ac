// AngelaMos | 2026
// recorder_test.go

package event

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	inserted []*Event
	err      error
	since    time.Time
	counts   []TypeCount
}

func (s *stubRepo) Insert(_ context.Context, e *Event) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, e)
	return nil
}

func (s *stubRepo) CountByType(_ context.Context, since time.Time) ([]TypeCount, error) {
	s.since = since
	return s.counts, s.err
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_events_total",
	}, []string{"type"})
}

func TestRecordPersistsEvent(t *testing.T) {
	repo := &stubRepo{}
	counter := newCounter()
	rec := NewRecorder(repo, counter, nil)

	rec.Record(context.Background(), Entry{
		UserID:  "u1",
		Type:    TypeReleaseView,
		Details: map[string]any{"release_id": "r1"},
	})

	require.Len(t, repo.inserted, 1)
	got := repo.inserted[0]
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u1", *got.UserID)
	assert.Equal(t, TypeReleaseView, got.EventType)
	assert.JSONEq(t, `{"release_id":"r1"}`, string(got.Details))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues("release_view")))
}

func TestRecordAnonymousHasNilUser(t *testing.T) {
	repo := &stubRepo{}
	rec := NewRecorder(repo, nil, nil)

	rec.Record(context.Background(), Entry{Type: TypeResearchLineView})

	require.Len(t, repo.inserted, 1)
	assert.Nil(t, repo.inserted[0].UserID)
	assert.Equal(t, json.RawMessage("{}"), repo.inserted[0].Details)
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	counter := newCounter()
	rec := NewRecorder(repo, counter, nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Entry{UserID: "u1", Type: TypeLogin})
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues("login")))
}

func TestSummarizeClampsWindow(t *testing.T) {
	fixed := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{counts: []TypeCount{
		{EventType: TypeReleaseView, Count: 7},
		{EventType: TypeLogin, Count: 3},
	}}
	rec := NewRecorder(repo, nil, nil)
	rec.now = func() time.Time { return fixed }

	summary, err := rec.Summarize(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSummaryDays, summary.Days)
	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, fixed.AddDate(0, 0, -DefaultSummaryDays), repo.since)

	summary, err = rec.Summarize(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, MaxSummaryDays, summary.Days)
}

func TestRepositoryCountByType(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_type, COUNT(*) AS count")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"event_type", "count"}).
			AddRow("release_view", 4).
			AddRow("signup", 1))

	counts, err := repo.CountByType(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, TypeReleaseView, counts[0].EventType)
	assert.Equal(t, 4, counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
