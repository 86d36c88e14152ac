// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/admin"
	"github.com/carterperez-dev/research-portal/internal/audit"
	"github.com/carterperez-dev/research-portal/internal/auth"
	"github.com/carterperez-dev/research-portal/internal/config"
	"github.com/carterperez-dev/research-portal/internal/contact"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/health"
	"github.com/carterperez-dev/research-portal/internal/middleware"
	"github.com/carterperez-dev/research-portal/internal/release"
	"github.com/carterperez-dev/research-portal/internal/researchline"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
	"github.com/carterperez-dev/research-portal/internal/server"
	"github.com/carterperez-dev/research-portal/internal/storage"
	"github.com/carterperez-dev/research-portal/internal/subscription"
	"github.com/carterperez-dev/research-portal/internal/user"
)

const (
	drainDelay = 5 * time.Second
	apiPrefix  = "/v1"

	contactPerHour = 10
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("genkeys", false, "write a new ES256 key pair and exit")
	privateKey := flag.String("private-key", "keys/private.pem", "private key path for -genkeys")
	publicKey := flag.String("public-key", "keys/public.pem", "public key path for -genkeys")
	flag.Parse()

	if *genKeys {
		if err := auth.GenerateKeyPair(*privateKey, *publicKey); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s and %s\n", *privateKey, *publicKey)
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	metrics := core.NewMetrics()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis, cfg.App.Name)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var objects *storage.Client
	if cfg.Storage.Enabled() {
		objects, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return err
		}
		logger.Info("object storage configured",
			"region", cfg.Storage.Region,
			"bucket", cfg.Storage.DefaultBucket,
			"public_buckets", cfg.Storage.PublicBuckets,
		)
	} else {
		logger.Warn("object storage not configured, document uploads disabled")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	events := event.NewRecorder(event.NewRepository(db.DB), metrics.EventsTotal, logger)
	auditSvc := audit.NewService(audit.NewRepository(db.DB), logger)

	authSvc := auth.NewService(auth.ServiceConfig{
		Tokens:   auth.NewRepository(db.DB),
		Accounts: auth.NewAccountRepository(db.DB),
		JWT:      jwtManager,
		Redis:    redis.Client,
		Events:   events,
		Logger:   logger,
	})

	userSvc := user.NewService(user.NewRepository(db.DB), auditSvc, logger)
	subscriptionSvc := subscription.NewService(subscription.NewRepository(db.DB))
	gate := access.NewGate(subscriptionSvc)

	pageCache := revalidate.NewPageCache(redis.Client, cfg.Pages.CacheTTL, cfg.Pages.Channel)
	lineRepo := researchline.NewRepository(db.DB)

	revalidateSvc := revalidate.NewService(revalidate.ServiceConfig{
		Store:   pageCache,
		Lines:   lineRepo,
		Timeout: cfg.Pages.InvalidateTimeout,
		Counter: metrics.Invalidations,
		Logger:  logger,
	})

	lineSvc := researchline.NewService(lineRepo, auditSvc, revalidateSvc, logger)

	releaseSvc := release.NewService(release.ServiceConfig{
		Repo:        release.NewRepository(db.DB),
		Lines:       lineSvc,
		Objects:     objects,
		Auditor:     auditSvc,
		Invalidator: revalidateSvc,
		Logger:      logger,
	})

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if objects != nil {
		deps = append(deps, health.Dependency{Name: "storage", Checker: objects, Optional: true})
	}
	healthHandler := health.NewHandler(deps...)

	authHandler := auth.NewHandler(authSvc, cfg.IsProduction())
	userHandler := user.NewHandler(userSvc)
	auditHandler := audit.NewHandler(auditSvc)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc, lineSvc, cfg.App.LoginPath)
	revalidateHandler := revalidate.NewHandler(revalidateSvc)
	contactHandler := contact.NewHandler(contact.NewRepository(db.DB), logger)

	lineHandler := researchline.NewHandler(researchline.HandlerConfig{
		Service:   lineSvc,
		Gate:      gate,
		Cache:     pageCache,
		Events:    events,
		LoginPath: cfg.App.LoginPath,
		APIPrefix: apiPrefix,
		Logger:    logger,
	})

	releaseHandler := release.NewHandler(release.HandlerConfig{
		Service:        releaseSvc,
		Resolver:       release.NewResolver(objects, release.NewRenderer(), logger),
		Gate:           gate,
		Cache:          pageCache,
		Events:         events,
		LoginPath:      cfg.App.LoginPath,
		APIPrefix:      apiPrefix,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         logger,
	})

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		Deps:       healthHandler,
		Engagement: events,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(metrics))
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: bypassRateLimit(cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	identity := user.IdentityMiddleware(userSvc, logger)
	tiered := middleware.TieredRateLimiter(redis.Client, middleware.DefaultTiers)

	contactThrottle := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:   middleware.PerHour(contactPerHour, contactPerHour),
		KeyFunc: middleware.KeyByRoute("contact"),
	}).Handler

	authenticated := chain(authenticator, identity, tiered)
	viewer := chain(middleware.OptionalAuth(authSvc), identity, tiered)

	router.Route("/api", func(r chi.Router) {
		contactHandler.RegisterRoutes(r, contactThrottle)
		revalidateHandler.RegisterRoutes(r, viewer)
	})

	router.Route(apiPrefix, func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticated)

		lineHandler.RegisterRoutes(r, viewer)
		subscriptionHandler.RegisterRoutes(r, viewer, authenticated)
		releaseHandler.RegisterRoutes(r, viewer)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated, middleware.RequireAdmin(cfg.App.LoginPath, cfg.App.DashboardPath))

			userHandler.RegisterAdminRoutes(r)
			lineHandler.RegisterAdminRoutes(r)
			releaseHandler.RegisterAdminRoutes(r)
			auditHandler.RegisterAdminRoutes(r)
			adminHandler.RegisterAdminRoutes(r)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := revalidateSvc.Wait(shutdownCtx); err != nil {
		logger.Warn("pending page invalidations abandoned", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// chain composes middleware so the first argument runs first.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func bypassRateLimit(metricsPath string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		switch r.URL.Path {
		case "/healthz", "/livez", "/readyz", metricsPath:
			return true
		}
		return strings.HasPrefix(r.URL.Path, "/.well-known/")
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
