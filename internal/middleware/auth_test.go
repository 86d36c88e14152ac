// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type stubVerifier struct {
	tokens map[string]*Principal
	err    error
}

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (*Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.tokens[token]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("parse token: %w", core.ErrTokenInvalid)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(GetUserID(r.Context())))
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"case insensitive scheme", "bearer  abc ", "", "abc"},
		{"wrong scheme", "Basic abc", "cookie-token", ""},
		{"cookie fallback", "", "cookie-token", "cookie-token"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAuthenticator(t *testing.T) {
	verifier := stubVerifier{tokens: map[string]*Principal{"good": {UserID: "u1"}}}
	h := Authenticator(verifier)(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"invalid", "Bearer bad", http.StatusUnauthorized, ""},
		{"valid", "Bearer good", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	h := Authenticator(stubVerifier{err: core.ErrTokenExpired})(http.HandlerFunc(echoUser))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer old")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	verifier := stubVerifier{tokens: map[string]*Principal{"good": {UserID: "u1"}}}
	h := OptionalAuth(verifier)(http.HandlerFunc(echoUser))

	for header, want := range map[string]string{"": "", "Bearer bad": "", "Bearer good": "u1"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin("/login", "/dashboard")(http.HandlerFunc(echoUser))

	withIdentity := func(r *http.Request, id *Identity) *http.Request {
		if id == nil {
			return r
		}
		ctx := WithPrincipal(r.Context(), &Principal{UserID: id.UserID})
		return r.WithContext(WithIdentity(ctx, *id))
	}

	tests := []struct {
		name     string
		identity *Identity
		accept   string
		wantCode int
		location string
	}{
		{"anonymous api", nil, "application/json", http.StatusUnauthorized, ""},
		{"anonymous browser", nil, "text/html", http.StatusSeeOther, "/login?next=%2Fadmin%2Fstats%3Fdays%3D7"},
		{"user api", &Identity{UserID: "u1", Role: "user"}, "application/json", http.StatusForbidden, ""},
		{"user browser", &Identity{UserID: "u1", Role: "user"}, "text/html", http.StatusSeeOther, "/dashboard"},
		{
			"transient admin",
			&Identity{UserID: "u1", Role: RoleAdmin, Transient: true},
			"application/json",
			http.StatusForbidden,
			"",
		},
		{"admin", &Identity{UserID: "u1", Role: RoleAdmin}, "text/html", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/stats?days=7", nil)
			r.Header.Set("Accept", tt.accept)
			r = withIdentity(r, tt.identity)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAuthenticated(ctx))
	assert.False(t, IsAdmin(ctx))
	assert.Empty(t, GetUserTier(ctx))

	ctx = WithPrincipal(ctx, &Principal{UserID: "u1"})
	ctx = WithIdentity(ctx, Identity{UserID: "u1", Role: RoleAdmin, Tier: "member"})

	assert.True(t, IsAuthenticated(ctx))
	assert.True(t, IsAdmin(ctx))
	assert.Equal(t, "member", GetUserTier(ctx))
	assert.Equal(t, RoleAdmin, GetUserRole(ctx))
}
