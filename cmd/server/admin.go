package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnshRaj112/patience-portal/internal/config"
	"github.com/AnshRaj112/patience-portal/internal/database"
	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/middleware"
	"github.com/AnshRaj112/patience-portal/internal/services"
	"github.com/AnshRaj112/patience-portal/internal/store"
	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return failed("failed to connect to PostgreSQL", err)
	}
	defer db.Close()
	if err := database.InitPostgresTables(ctx, db); err != nil {
		return failed("migration failed", err)
	}
	return nil
}

// loadFixtures reads a seed file. See seed.example.yaml.
func loadFixtures(path string) (store.Fixtures, error) {
	var fx store.Fixtures
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("parse %s: %w", path, err)
	}
	return fx, nil
}

func runSeed(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	fx, err := loadFixtures(path)
	if err != nil {
		return err
	}

	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return failed("failed to connect to PostgreSQL", err)
	}
	defer db.Close()
	if err := database.InitPostgresTables(ctx, db); err != nil {
		return failed("failed to initialize PostgreSQL tables", err)
	}

	res, err := store.Seed(ctx, db, fx)
	if err != nil {
		return failed("seed failed", err)
	}
	fmt.Fprintf(out, "✅ Seeded %d zones, %d bouquets, %d subscribers, %d payments\n",
		res.Zones, res.Bouquets, res.Subscribers, res.Payments)

	// New bouquets must not wait for the cached catalog to expire.
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		logger.L().Warn("bouquet cache not invalidated", zap.Error(err))
		return nil
	}
	defer rdb.Close()
	catalog := services.NewBouquetCatalog(store.NewBouquetStore(db), services.NewCacheService(rdb), cfg.BouquetCacheTTL)
	if err := catalog.Invalidate(ctx); err != nil {
		logger.L().Warn("bouquet cache not invalidated", zap.Error(err))
	}
	return nil
}

func runActivity(ctx context.Context, cfg *config.Config, phone string, limit int64, out io.Writer) error {
	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is not set")
	}
	client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return failed("failed to connect to MongoDB", err)
	}
	defer database.DisconnectMongo(client)

	normalized := utils.NormalizePhone(phone)
	entries, err := services.NewMongoActivityLog(mdb).Recent(ctx, normalized, limit)
	if err != nil {
		return failed("failed to read activity", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No activity for %s\n", normalized)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tOUTCOME\tREASON\tREFERENCE\tIP")
	for _, a := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.CreatedAt.Local().Format(time.DateTime), a.Action, a.Outcome, dash(a.Reason), dash(a.Reference), dash(a.ClientIP))
	}
	return tw.Flush()
}

func runUnblock(ctx context.Context, cfg *config.Config, ip string, out io.Writer) error {
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		return failed("failed to connect to Redis", err)
	}
	defer rdb.Close()

	limiter := middleware.NewRedisRateLimiter(rdb, cfg.TrustProxy)
	blocked, err := limiter.IsBlocked(ctx, ip)
	if err != nil {
		return failed("failed to check IP", err)
	}
	if !blocked {
		fmt.Fprintf(out, "%s is not blocked\n", ip)
		return nil
	}
	if err := limiter.Unblock(ctx, ip); err != nil {
		return failed("failed to unblock IP", err)
	}
	fmt.Fprintf(out, "✅ %s unblocked\n", ip)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
