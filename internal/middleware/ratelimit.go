// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/research-portal/internal/core"
)

// limitStore counts against redis and drops to an in-process token bucket
// per key while redis is unreachable.
type limitStore struct {
	redis *redis_rate.Limiter
	local *localLimiter
}

func newLimitStore(rdb *redis.Client) *limitStore {
	return &limitStore{
		redis: redis_rate.NewLimiter(rdb),
		local: newLocalLimiter(),
	}
}

// allow reports degraded=true when the answer came from the local bucket.
func (s *limitStore) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) (res *redis_rate.Result, degraded bool) {
	res, err := s.redis.Allow(ctx, key, limit)
	if err == nil {
		return res, false
	}
	return s.local.allow(key, limit), true
}

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	BypassFunc func(*http.Request) bool
	// FailOpen lets requests through unmetered when redis is down instead of
	// enforcing the local bucket.
	FailOpen bool
}

type RateLimiter struct {
	store  *limitStore
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		store:  newLimitStore(rdb),
		config: cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, degraded := rl.store.allow(r.Context(), key, rl.config.Limit)
		if degraded && rl.config.FailOpen {
			slog.Warn("rate limit store unavailable, failing open", "key", key)
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// ClientIP prefers the proxy-appended (last) X-Forwarded-For hop, then
// X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

// KeyByRoute scopes a caller's budget to one named route so a tight limit on
// it does not eat into the general allowance.
func KeyByRoute(route string) func(*http.Request) string {
	return func(r *http.Request) string {
		return KeyByUser(r) + ":route:" + route
	}
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: &core.ErrorBody{
			Code: "RATE_LIMITED",
			Message: fmt.Sprintf(
				"Rate limit exceeded. Retry after %d seconds.",
				retryAfter,
			),
		},
	})
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

const (
	cleanupInterval = 5 * time.Minute
	bucketTTL       = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	l := &localLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	go l.sweepEvery(cleanupInterval)
	return l
}

func (l *localLimiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		l.sweep()
	}
}

func (l *localLimiter) sweep() {
	cutoff := l.now().Add(-bucketTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := limit.Period / time.Duration(limit.Rate)
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := int(b.limiter.TokensAt(now))
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(remaining, 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	return res
}

type TierConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

const defaultTier = "free"

// DefaultTiers keys on membership tier. Admins are not special-cased here;
// their tier decides like anyone else's.
var DefaultTiers = map[string]TierConfig{
	defaultTier: {RequestsPerMinute: 120, BurstSize: 20},
	"member":    {RequestsPerMinute: 600, BurstSize: 100},
}

// TieredRateLimiter must run after the identity middleware; callers without
// an identity are metered as the free tier.
func TieredRateLimiter(
	rdb *redis.Client,
	tiers map[string]TierConfig,
) func(http.Handler) http.Handler {
	store := newLimitStore(rdb)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier, config := resolveTier(tiers, GetUserTier(r.Context()))
			limit := PerMinute(config.RequestsPerMinute, config.BurstSize)

			res, _ := store.allow(r.Context(), KeyByUser(r)+":tier:"+tier, limit)

			w.Header().Set("X-RateLimit-Tier", tier)
			setRateLimitHeaders(w, res, limit)

			if res.Allowed == 0 {
				writeRateLimitExceeded(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resolveTier(tiers map[string]TierConfig, tier string) (string, TierConfig) {
	if config, ok := tiers[tier]; ok {
		return tier, config
	}
	return defaultTier, tiers[defaultTier]
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

func PerHour(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Hour,
	}
}
