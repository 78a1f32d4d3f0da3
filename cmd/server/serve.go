package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/config"
	"github.com/AnshRaj112/patience-portal/internal/database"
	"github.com/AnshRaj112/patience-portal/internal/handlers"
	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/metrics"
	"github.com/AnshRaj112/patience-portal/internal/middleware"
	"github.com/AnshRaj112/patience-portal/internal/routes"
	"github.com/AnshRaj112/patience-portal/internal/services"
	"github.com/AnshRaj112/patience-portal/internal/store"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	if cfg.UsesDefaultPINSecret() {
		log.Warn("⚠️  PIN_SECRET not set, using the development secret. Do not run this in production.")
	}

	log.Info("Connecting to PostgreSQL...")
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return failed("failed to connect to PostgreSQL", err)
	}
	defer db.Close()
	if err := database.InitPostgresTables(ctx, db); err != nil {
		return failed("failed to initialize PostgreSQL tables", err)
	}

	log.Info("Connecting to Redis...")
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		return failed("failed to connect to Redis", err)
	}
	defer rdb.Close()

	activity, closeActivity := openActivityLog(ctx, cfg)
	defer closeActivity()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg, reg)
	if err != nil {
		return failed("failed to register metrics", err)
	}

	subs := store.NewSubscriberStore(db)
	payments := store.NewPaymentStore(db)
	tickets := store.NewTicketStore(db)

	sessions := services.NewSessionService(services.NewRedisSessionStore(rdb), cfg.SessionTTL)
	catalog := services.NewBouquetCatalog(store.NewBouquetStore(db), services.NewCacheService(rdb), cfg.BouquetCacheTTL)

	hub := services.NewPaymentEventHub(rdb)
	hub.Start(ctx)

	h := handlers.New(handlers.Deps{
		Auth:     services.NewAuthService(subs, sessions, cfg.PINSecret),
		Portal:   services.NewPortalService(sessions, subs, payments, tickets, catalog),
		Payments: services.NewPaymentService(sessions, subs, payments, catalog, newRail(cfg), hub),
		Tickets:  services.NewTicketService(sessions, subs, tickets),
		Events:   hub,
		Activity: activity,
		Metrics:  m,
		Checks: map[string]handlers.HealthCheck{
			"postgres": pingPostgres(db),
			"redis":    pingRedis(rdb),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	})

	opts := routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Metrics:        m,
		DataLimit:      middleware.NewDataRateLimit(cfg.TrustProxy),
	}
	if cfg.IsProduction() {
		opts.Security = middleware.ProductionSecurity(publicHost(cfg.Host), middleware.NewRateLimits(cfg.TrustProxy))
		log.Info("✅ Production security enabled (security headers, per-IP + auth rate limiting)")
	} else {
		opts.RedisLimiter = middleware.NewRedisRateLimiter(rdb, cfg.TrustProxy)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(h, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Subscriber portal running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return failed("server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

// openActivityLog connects to MongoDB when configured. The trail is optional:
// a connection failure is logged and the server runs without it.
func openActivityLog(ctx context.Context, cfg *config.Config) (services.ActivityRecorder, func()) {
	if cfg.MongoURI == "" {
		logger.L().Info("MONGODB_URI not set, portal activity trail disabled")
		return services.NopActivity{}, func() {}
	}
	logger.L().Info("Connecting to MongoDB...")
	client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.L().Warn("⚠️  MongoDB unavailable, portal activity trail disabled", zap.Error(err))
		return services.NopActivity{}, func() {}
	}
	activity := services.NewMongoActivityLog(mdb)
	if err := activity.EnsureIndexes(ctx); err != nil {
		logger.L().Warn("⚠️  failed to ensure activity indexes", zap.Error(err))
	}
	return activity, func() {
		activity.Flush()
		if err := database.DisconnectMongo(client); err != nil {
			logger.L().Warn("mongo disconnect failed", zap.Error(err))
		}
	}
}

func newRail(cfg *config.Config) services.MobileMoneyRail {
	if cfg.MoMoAPIURL == "" {
		logger.L().Info("MOMO_API_URL not set, using the simulated mobile-money rail")
		return services.SimulatedRail{}
	}
	return services.NewHTTPRail(cfg.MoMoAPIURL, cfg.MoMoAPIKey, cfg.MoMoTimeout)
}

// publicHost is the host name requests must carry in production. Local
// hosts disable the check.
func publicHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || host == "localhost" || host == "127.0.0.1" {
		return ""
	}
	return host
}

func pingPostgres(db *sql.DB) handlers.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func pingRedis(rdb *redis.Client) handlers.HealthCheck {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
