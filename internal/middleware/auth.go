// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	IdentityKey  contextKey = "identity"
	RequestIDKey contextKey = "request_id"

	AccessTokenCookie = "access_token"

	RoleAdmin = "admin"
)

// Principal is what a verified access token asserts about the caller.
type Principal struct {
	UserID       string
	Email        string
	DisplayName  string
	CreatedAt    time.Time
	TokenVersion int
	TokenID      string
	ExpiresAt    time.Time
}

// Identity is the caller's resolved profile view. Transient identities come
// from a fallback profile that was never persisted and are not trusted for
// authorization.
type Identity struct {
	UserID    string
	Role      string
	Tier      string
	Transient bool
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin && !i.Transient
}

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*Principal, error)
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			principal, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth attaches a principal when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				principal, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), principal))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			identity, ok := GetIdentity(r.Context())
			if !ok || identity.Transient {
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
				return
			}

			if _, allowed := roleSet[identity.Role]; !allowed {
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin answers 401/403 for API clients. Browser navigations are
// redirected: anonymous ones to login with the page as return target,
// signed-in non-admins to the dashboard.
func RequireAdmin(loginPath, dashboardPath string) func(http.Handler) http.Handler {
	apiGuard := RequireRole(RoleAdmin)

	return func(next http.Handler) http.Handler {
		guarded := apiGuard(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wantsHTML(r) {
				switch {
				case !IsAuthenticated(r.Context()):
					core.Redirect(w, r, LoginURL(loginPath, r.URL.RequestURI()))
					return
				case !IsAdmin(r.Context()):
					core.Redirect(w, r, dashboardPath)
					return
				}
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// LoginURL returns loginPath carrying next as the return target.
func LoginURL(loginPath, next string) string {
	return loginPath + "?next=" + url.QueryEscape(next)
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(Identity)
	return identity, ok
}

func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if identity, ok := GetIdentity(ctx); ok {
		return identity.Role
	}
	return ""
}

func GetUserTier(ctx context.Context) string {
	if identity, ok := GetIdentity(ctx); ok {
		return identity.Tier
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func IsAdmin(ctx context.Context) bool {
	identity, ok := GetIdentity(ctx)
	return ok && identity.IsAdmin()
}
