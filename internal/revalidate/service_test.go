// AngelaMos | 2026
// service_test.go

package revalidate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type stubStore struct {
	mu     sync.Mutex
	calls  [][]string
	cached []string
	err    error
}

func (s *stubStore) Cached(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, p := range s.cached {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) Invalidate(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, paths)
	return s.err
}

type stubSlugs []string

func (s stubSlugs) ListSlugs(context.Context) ([]string, error) {
	return s, nil
}

func TestInvalidateAllUsesStoredSlugs(t *testing.T) {
	store := &stubStore{}
	svc := NewService(ServiceConfig{Store: store, Lines: stubSlugs{"a", "b"}})

	paths, err := svc.Invalidate(context.Background(), AllTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/lines", "/lines/a", "/lines/b"}, paths)
	require.Len(t, store.calls, 1)
}

func TestLineChangeClearsCachedReleasePages(t *testing.T) {
	store := &stubStore{cached: []string{
		"/lines/ai-policy",
		"/lines/ai-policy/q1",
		"/lines/ai-policy/q2",
		"/lines/ai-policy-old/q1",
		"/lines/energy/q1",
	}}
	svc := NewService(ServiceConfig{Store: store})

	paths, err := svc.Invalidate(context.Background(), LineTarget("ai-policy"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/lines/ai-policy", "/lines", "/",
		"/lines/ai-policy/q1", "/lines/ai-policy/q2",
	}, paths)
}

func TestInvalidateAllClearsEveryCachedLinePage(t *testing.T) {
	store := &stubStore{cached: []string{"/lines/a", "/lines/a/q1", "/lines/gone/q9"}}
	svc := NewService(ServiceConfig{Store: store, Lines: stubSlugs{"a"}})

	paths, err := svc.Invalidate(context.Background(), AllTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/lines", "/lines/a", "/lines/a/q1", "/lines/gone/q9"}, paths)
}

func TestReleaseChangeDoesNotScan(t *testing.T) {
	store := &stubStore{cached: []string{"/lines/ai-policy/q2"}}
	svc := NewService(ServiceConfig{Store: store})

	paths, err := svc.Invalidate(context.Background(), ReleaseTarget("ai-policy", "q1"))
	require.NoError(t, err)
	assert.NotContains(t, paths, "/lines/ai-policy/q2")
}

func TestTriggerSurvivesCancelledRequest(t *testing.T) {
	store := &stubStore{}
	svc := NewService(ServiceConfig{Store: store, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Trigger(ctx, LineTarget("ai-policy"))
	require.NoError(t, svc.Wait(context.Background()))

	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"/lines/ai-policy", "/lines", "/"}, store.calls[0])
}

func TestTriggerLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := &stubStore{err: errors.New("redis down")}
	svc := NewService(ServiceConfig{Store: store, Logger: logger})

	svc.Trigger(context.Background(), ReleaseTarget("ai-policy", "q1"))
	require.NoError(t, svc.Wait(context.Background()))

	assert.Contains(t, buf.String(), "page invalidation failed")
}

func serve(h *Handler, identity *middleware.Identity, body string) *httptest.ResponseRecorder {
	viewer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity != nil {
				ctx := middleware.WithPrincipal(r.Context(), &middleware.Principal{UserID: identity.UserID})
				ctx = middleware.WithIdentity(ctx, *identity)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	h.RegisterRoutes(r, viewer)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/revalidate", strings.NewReader(body)))
	return rec
}

func TestRevalidateHandlerStatusCodes(t *testing.T) {
	admin := &middleware.Identity{UserID: "a1", Role: middleware.RoleAdmin}
	member := &middleware.Identity{UserID: "u1", Role: "user", Tier: "member"}

	tests := []struct {
		name     string
		identity *middleware.Identity
		body     string
		want     int
	}{
		{"unauthenticated", nil, `{"type":"all"}`, http.StatusUnauthorized},
		{"non-admin", member, `{"type":"all"}`, http.StatusForbidden},
		{"transient admin", &middleware.Identity{UserID: "a1", Role: middleware.RoleAdmin, Transient: true}, `{"type":"all"}`, http.StatusForbidden},
		{"invalid type", admin, `{"type":"page"}`, http.StatusBadRequest},
		{"missing slug", admin, `{"type":"research-line"}`, http.StatusBadRequest},
		{"missing release slug", admin, `{"type":"release","researchLineSlug":"x"}`, http.StatusBadRequest},
		{"malformed body", admin, `{`, http.StatusBadRequest},
		{"ok", admin, `{"type":"research-line","slug":"ai-policy"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			h := NewHandler(NewService(ServiceConfig{Store: store, Lines: stubSlugs{}}))
			h.now = func() time.Time { return time.UnixMilli(1767225600000) }

			rec := serve(h, tt.identity, tt.body)
			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"revalidated":true,"now":1767225600000}`, rec.Body.String())
				assert.Len(t, store.calls, 1)
			} else {
				assert.Empty(t, store.calls)
			}
		})
	}
}
