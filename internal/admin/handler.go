// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/health"
)

type DependencyChecker interface {
	Check(ctx context.Context) []health.HealthCheck
}

type EngagementSummarizer interface {
	Summarize(ctx context.Context, days int) (*event.Summary, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	deps       DependencyChecker
	engagement EngagementSummarizer
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	Deps       DependencyChecker
	Engagement EngagementSummarizer
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		deps:       cfg.Deps,
		engagement: cfg.Engagement,
	}
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/stats", h.GetSystemStats)
	r.Get("/stats/db", h.GetDatabaseStats)
	r.Get("/stats/redis", h.GetRedisStats)
	r.Get("/stats/runtime", h.GetRuntimeStats)
	r.Get("/stats/events", h.GetEngagement)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	var deps []health.HealthCheck
	if h.deps != nil {
		deps = h.deps.Check(r.Context())
	}

	core.OK(w, SystemStatsResponse{
		Dependencies: deps,
		Database:     h.getDBStats(),
		Redis:        h.getRedisStats(),
		Runtime:      readRuntimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

// GetEngagement returns event counts by type for the trailing ?days=N
// window.
func (h *Handler) GetEngagement(w http.ResponseWriter, r *http.Request) {
	if h.engagement == nil {
		core.NotFound(w, "engagement summary")
		return
	}

	days := event.DefaultSummaryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			core.BadRequest(w, "days must be a positive integer")
			return
		}
		days = parsed
	}

	summary, err := h.engagement.Summarize(r.Context(), days)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	if stats == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Dependencies []health.HealthCheck `json:"dependencies"`
	Database     *DBPoolStats         `json:"database,omitempty"`
	Redis        *RedisPoolStats      `json:"redis,omitempty"`
	Runtime      RuntimeStats         `json:"runtime"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
