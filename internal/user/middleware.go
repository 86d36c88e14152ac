// AngelaMos | 2026
// middleware.go

package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type profileKey struct{}

type Resolver interface {
	Resolve(ctx context.Context, principal *middleware.Principal) (*User, error)
	Fallback(principal *middleware.Principal) *User
}

// IdentityMiddleware resolves the authenticated principal to a profile and
// stores both the profile and its Identity on the request context. A
// resolver failure installs the transient fallback profile instead of
// failing the request.
func IdentityMiddleware(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := middleware.GetPrincipal(r.Context())
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			profile, err := resolver.Resolve(r.Context(), principal)
			if err != nil {
				logger.WarnContext(r.Context(), "profile resolution failed, using fallback",
					"user_id", principal.UserID,
					"error", err,
				)
				profile = resolver.Fallback(principal)
			}

			ctx := middleware.WithIdentity(r.Context(), profile.Identity())
			ctx = context.WithValue(ctx, profileKey{}, profile)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ProfileFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(profileKey{}).(*User); ok {
		return u
	}
	return nil
}
