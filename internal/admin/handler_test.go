// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/health"
)

type stubSummarizer struct {
	days []int
}

func (s *stubSummarizer) Summarize(_ context.Context, days int) (*event.Summary, error) {
	s.days = append(s.days, days)
	return &event.Summary{
		Days:   days,
		Counts: []event.TypeCount{{EventType: event.TypeReleaseView, Count: 3}},
		Total:  3,
	}, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newRouter(s *stubSummarizer) chi.Router {
	r := chi.NewRouter()
	NewHandler(HandlerConfig{
		Deps:       health.NewHandler(health.Dependency{Name: "database", Checker: okPinger{}}),
		Engagement: s,
	}).RegisterAdminRoutes(r)
	return r
}

func TestEngagementDays(t *testing.T) {
	tests := []struct {
		query    string
		code     int
		wantDays int
	}{
		{"", http.StatusOK, event.DefaultSummaryDays},
		{"?days=7", http.StatusOK, 7},
		{"?days=0", http.StatusBadRequest, 0},
		{"?days=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s := &stubSummarizer{}
			rec := httptest.NewRecorder()
			newRouter(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats/events"+tt.query, nil))

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, []int{tt.wantDays}, s.days)
			} else {
				assert.Empty(t, s.days)
			}
		})
	}
}

func TestSystemStatsIncludesDependencies(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubSummarizer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Dependencies, 1)
	assert.Equal(t, "database", body.Data.Dependencies[0].Name)
	assert.True(t, body.Data.Dependencies[0].Healthy)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}
