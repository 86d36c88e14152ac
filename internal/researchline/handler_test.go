// AngelaMos | 2026
// handler_test.go

package researchline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type memCache struct {
	pages map[string][]byte
	gets  int
}

func (c *memCache) Get(_ context.Context, path string) ([]byte, bool, error) {
	c.gets++
	body, ok := c.pages[path]
	return body, ok, nil
}

func (c *memCache) Set(_ context.Context, path string, body []byte) error {
	c.pages[path] = body
	return nil
}

type stubEvents struct {
	entries []event.Entry
}

func (s *stubEvents) Record(_ context.Context, e event.Entry) {
	s.entries = append(s.entries, e)
}

type noSubscriptions struct{}

func (noSubscriptions) IsActive(context.Context, string, string) (bool, error) {
	return false, nil
}

type fixture struct {
	repo   *memRepo
	cache  *memCache
	events *stubEvents
	router chi.Router
}

func newFixture(identity *middleware.Identity) *fixture {
	repo := newMemRepo()
	cache := &memCache{pages: map[string][]byte{}}
	events := &stubEvents{}

	h := NewHandler(HandlerConfig{
		Service:   NewService(repo, nil, nil, nil),
		Gate:      access.NewGate(noSubscriptions{}),
		Cache:     cache,
		Events:    events,
		LoginPath: "/login",
		APIPrefix: "/v1",
	})

	viewer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity != nil {
				r = r.WithContext(middleware.WithIdentity(r.Context(), *identity))
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	h.RegisterRoutes(r, viewer)

	return &fixture{repo: repo, cache: cache, events: events, router: r}
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAnonymousPageCarriesLoginAndSubscribe(t *testing.T) {
	f := newFixture(nil)
	f.repo.add(ResearchLine{ID: "l1", Title: "AI", Slug: "ai-policy", IsActive: true})

	rec, body := f.get(t, "/lines/ai-policy")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	acc := data["access"].(map[string]any)
	assert.Equal(t, false, acc["granted"])
	assert.Equal(t, "anonymous", acc["reason"])
	assert.Equal(t, "/v1/lines/ai-policy/subscribe", acc["subscribe_url"])
	assert.Equal(t, "/login?next=%2Flines%2Fai-policy", acc["login_url"])

	require.Len(t, f.events.entries, 1)
	assert.Equal(t, event.TypeResearchLineView, f.events.entries[0].Type)
	assert.Empty(t, f.events.entries[0].UserID)
}

func TestPageReadsThroughCache(t *testing.T) {
	f := newFixture(&middleware.Identity{UserID: "u1", Role: "user"})
	f.repo.add(ResearchLine{ID: "l1", Title: "AI", Slug: "ai-policy", IsActive: true})

	rec, _ := f.get(t, "/lines/ai-policy")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, f.cache.pages, "/lines/ai-policy")

	delete(f.repo.lines, "l1")

	rec, body := f.get(t, "/lines/ai-policy")
	require.Equal(t, http.StatusOK, rec.Code)
	acc := body["data"].(map[string]any)["access"].(map[string]any)
	assert.Equal(t, "not_subscribed", acc["reason"])
	assert.Nil(t, acc["login_url"])
	assert.Len(t, f.events.entries, 2)
}

func TestInactiveLinePage(t *testing.T) {
	f := newFixture(&middleware.Identity{UserID: "u1", Role: "user"})
	f.repo.add(ResearchLine{ID: "l1", Slug: "hidden", IsActive: false})

	rec, _ := f.get(t, "/lines/hidden")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	admin := newFixture(&middleware.Identity{UserID: "a1", Role: middleware.RoleAdmin})
	admin.repo.add(ResearchLine{ID: "l1", Slug: "hidden", IsActive: false})

	rec, body := admin.get(t, "/lines/hidden")
	require.Equal(t, http.StatusOK, rec.Code)
	acc := body["data"].(map[string]any)["access"].(map[string]any)
	assert.Equal(t, "admin", acc["reason"])
	assert.Empty(t, admin.cache.pages)
}

func TestListPublicCachesIndex(t *testing.T) {
	f := newFixture(nil)
	f.repo.add(ResearchLine{ID: "l1", Slug: "a", IsActive: true})
	f.repo.add(ResearchLine{ID: "l2", Slug: "b", IsActive: false})

	rec, body := f.get(t, "/lines")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].([]any), 1)

	rec, _ = f.get(t, "/lines")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.repo.listHits)
}
