// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLocalLimiter(at time.Time) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*bucket),
		now:     func() time.Time { return at },
	}
}

func TestLocalLimiterEnforcesBurst(t *testing.T) {
	l := fixedLocalLimiter(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limit := PerMinute(60, 2)

	first := l.allow("k", limit)
	second := l.allow("k", limit)
	third := l.allow("k", limit)

	assert.Equal(t, 1, first.Allowed)
	assert.Equal(t, 1, second.Allowed)
	assert.Equal(t, 0, third.Allowed)
	assert.Equal(t, time.Second, third.RetryAfter)
	assert.Equal(t, 0, third.Remaining)

	other := l.allow("other", limit)
	assert.Equal(t, 1, other.Allowed)
}

func TestLocalLimiterSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := fixedLocalLimiter(now)

	l.allow("stale", PerMinute(60, 1))
	l.now = func() time.Time { return now.Add(bucketTTL + time.Minute) }
	l.allow("fresh", PerMinute(60, 1))
	l.sweep()

	require.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "fresh")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"last forwarded hop", map[string]string{"X-Forwarded-For": "1.1.1.1, 10.0.0.2"}, "10.0.0.9:1", "10.0.0.2"},
		{"real ip", map[string]string{"X-Real-IP": "2.2.2.2"}, "10.0.0.9:1", "2.2.2.2"},
		{"peer", nil, "3.3.3.3:4567", "3.3.3.3"},
		{"peer without port", nil, "3.3.3.3", "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestRateLimitKeys(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	r.RemoteAddr = "4.4.4.4:80"

	assert.Equal(t, "ratelimit:ip:4.4.4.4", KeyByUser(r))
	assert.Equal(t, "ratelimit:ip:4.4.4.4:route:contact", KeyByRoute("contact")(r))

	r = r.WithContext(WithPrincipal(r.Context(), &Principal{UserID: "u1"}))
	assert.Equal(t, "ratelimit:user:u1:route:contact", KeyByRoute("contact")(r))
}

func TestResolveTier(t *testing.T) {
	tier, cfg := resolveTier(DefaultTiers, "member")
	assert.Equal(t, "member", tier)
	assert.Equal(t, 600, cfg.RequestsPerMinute)

	for _, unknown := range []string{"", "enterprise"} {
		tier, cfg = resolveTier(DefaultTiers, unknown)
		assert.Equal(t, defaultTier, tier)
		assert.Equal(t, DefaultTiers[defaultTier], cfg)
	}
}

func TestWriteRateLimitExceeded(t *testing.T) {
	l := fixedLocalLimiter(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limit := PerHour(1, 1)
	l.allow("k", limit)
	res := l.allow("k", limit)

	w := httptest.NewRecorder()
	setRateLimitHeaders(w, res, limit)
	writeRateLimitExceeded(w, res)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, "1;w=3600", w.Header().Get("RateLimit-Policy"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}
