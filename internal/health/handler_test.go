// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name   string
		deps   []Dependency
		code   int
		status string
	}{
		{
			name:   "all healthy",
			deps:   []Dependency{{Name: "database", Checker: pinger{}}, {Name: "redis", Checker: pinger{}}},
			code:   http.StatusOK,
			status: "ok",
		},
		{
			name:   "required down",
			deps:   []Dependency{{Name: "database", Checker: pinger{err: down}}, {Name: "redis", Checker: pinger{}}},
			code:   http.StatusServiceUnavailable,
			status: "unavailable",
		},
		{
			name: "optional down",
			deps: []Dependency{
				{Name: "database", Checker: pinger{}},
				{Name: "storage", Checker: pinger{err: down}, Optional: true},
			},
			code:   http.StatusOK,
			status: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := readiness(t, NewHandler(tt.deps...))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			require.Len(t, body.Checks, len(tt.deps))
			for i, dep := range tt.deps {
				assert.Equal(t, dep.Name, body.Checks[i].Name)
			}
		})
	}
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: pinger{}})
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	code, body := readiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", body.Status)
}
