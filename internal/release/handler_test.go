// AngelaMos | 2026
// handler_test.go

package release

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
	"github.com/carterperez-dev/research-portal/internal/researchline"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
)

type stubSubscriptions map[string]bool

func (s stubSubscriptions) IsActive(_ context.Context, userID, lineID string) (bool, error) {
	return s[userID+"/"+lineID], nil
}

type recordedEvents struct {
	entries []event.Entry
}

func (r *recordedEvents) Record(_ context.Context, e event.Entry) {
	r.entries = append(r.entries, e)
}

type memCache map[string][]byte

func (m memCache) Get(_ context.Context, path string) ([]byte, bool, error) {
	body, ok := m[path]
	return body, ok, nil
}

func (m memCache) Set(_ context.Context, path string, body []byte) error {
	m[path] = body
	return nil
}

func newViewRouter(env *testEnv, identity *middleware.Identity, events *recordedEvents) chi.Router {
	return newCachedViewRouter(env, identity, events, nil)
}

func newCachedViewRouter(
	env *testEnv,
	identity *middleware.Identity,
	events *recordedEvents,
	cache PageCache,
) chi.Router {
	h := NewHandler(HandlerConfig{
		Service:   env.svc,
		Cache:     cache,
		Gate:      access.NewGate(stubSubscriptions{"member/l1": true}),
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
	return r
}

func seedPublished(env *testEnv) {
	env.repo.releases["r1"] = &Release{ID: "r1", ResearchLineID: "l1", Title: "Q1", Slug: "q1", IsPublished: true}
	env.repo.sections["r1"] = []Section{
		{Category: CategoryCurrentLandscape, Title: "Now", Teaser: "teaser", Content: "full body"},
	}
	env.repo.documents["r1"] = []Document{{ID: "d1", StoragePath: "actualidad.pdf", Name: "Now"}}
}

type viewBody struct {
	Data struct {
		Release View         `json:"release"`
		Access  access.State `json:"access"`
	} `json:"data"`
}

func getView(t *testing.T, r chi.Router, path string) (int, viewBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body viewBody
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestViewGating(t *testing.T) {
	tests := []struct {
		name      string
		identity  *middleware.Identity
		granted   bool
		reason    access.Reason
		wantLogin bool
	}{
		{"anonymous", nil, false, access.ReasonAnonymous, true},
		{"not subscribed", &middleware.Identity{UserID: "free", Role: "user"}, false, access.ReasonNotSubscribed, false},
		{"subscribed", &middleware.Identity{UserID: "member", Role: "user"}, true, access.ReasonSubscribed, false},
		{"admin", &middleware.Identity{UserID: "boss", Role: middleware.RoleAdmin}, true, access.ReasonAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			seedPublished(env)
			events := &recordedEvents{}

			code, body := getView(t, newViewRouter(env, tt.identity, events), "/lines/ai-policy/releases/q1")
			require.Equal(t, http.StatusOK, code)

			acc := body.Data.Access
			assert.Equal(t, tt.granted, acc.Granted)
			assert.Equal(t, tt.reason, acc.Reason)

			section := body.Data.Release.Sections[0]
			assert.Equal(t, "teaser", section.Teaser)
			if tt.granted {
				assert.Equal(t, "full body", section.Content)
				assert.NotNil(t, section.Document)
				assert.Empty(t, acc.SubscribeURL)
			} else {
				assert.Empty(t, section.Content)
				assert.Nil(t, section.Document)
				assert.Equal(t, "/v1/lines/ai-policy/subscribe", acc.SubscribeURL)
			}

			if tt.wantLogin {
				assert.Equal(t, "/login?next=%2Flines%2Fai-policy%2Fq1", acc.LoginURL)
			} else {
				assert.Empty(t, acc.LoginURL)
			}

			require.Len(t, events.entries, 1)
			assert.Equal(t, event.TypeReleaseView, events.entries[0].Type)
		})
	}
}

func TestViewDraftHiddenFromNonAdmin(t *testing.T) {
	env := newTestEnv()
	env.repo.releases["r1"] = &Release{ID: "r1", ResearchLineID: "l1", Slug: "draft"}

	member := &middleware.Identity{UserID: "member", Role: "user"}
	code, _ := getView(t, newViewRouter(env, member, &recordedEvents{}), "/lines/ai-policy/releases/draft")
	assert.Equal(t, http.StatusNotFound, code)

	admin := &middleware.Identity{UserID: "boss", Role: middleware.RoleAdmin}
	code, body := getView(t, newViewRouter(env, admin, &recordedEvents{}), "/lines/ai-policy/releases/draft")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, body.Data.Release.IsPublished)
}

func TestCachedViewHonoursLineVisibility(t *testing.T) {
	member := &middleware.Identity{UserID: "member", Role: "user"}

	tests := []struct {
		name   string
		change func(env *testEnv)
	}{
		{"deactivated", func(env *testEnv) { env.lines["l1"].IsActive = false }},
		{"deleted", func(env *testEnv) { delete(env.lines, "l1") }},
		{"slug reused by another line", func(env *testEnv) {
			delete(env.lines, "l1")
			env.lines["l2"] = &researchline.ResearchLine{ID: "l2", Slug: "ai-policy", IsActive: true}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			seedPublished(env)
			cache := memCache{}
			router := newCachedViewRouter(env, member, &recordedEvents{}, cache)

			code, body := getView(t, router, "/lines/ai-policy/releases/q1")
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, "full body", body.Data.Release.Sections[0].Content)
			require.Contains(t, cache, revalidate.ReleasePath("ai-policy", "q1"))

			tt.change(env)

			code, _ = getView(t, router, "/lines/ai-policy/releases/q1")
			assert.Equal(t, http.StatusNotFound, code)
		})
	}
}

func TestCachedViewServedWhileLineActive(t *testing.T) {
	env := newTestEnv()
	seedPublished(env)
	cache := memCache{}
	member := &middleware.Identity{UserID: "member", Role: "user"}
	router := newCachedViewRouter(env, member, &recordedEvents{}, cache)

	code, _ := getView(t, router, "/lines/ai-policy/releases/q1")
	require.Equal(t, http.StatusOK, code)

	delete(env.repo.releases, "r1")

	code, body := getView(t, router, "/lines/ai-policy/releases/q1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "full body", body.Data.Release.Sections[0].Content)
}
