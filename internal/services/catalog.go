package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
)

// BouquetRepository is the catalog read side.
type BouquetRepository interface {
	ListActive(ctx context.Context) ([]models.BouquetSummary, error)
	ActivePrice(ctx context.Context, id string) (int64, error)
}

var catalogCacheKey = CacheKey("bouquets", "active")

// BouquetCatalog serves the active catalog from Redis, filling it from
// Postgres at most once per expiry across concurrent requests. Cache
// failures fall back to the database.
type BouquetCatalog struct {
	repo  BouquetRepository
	cache *CacheService
	ttl   time.Duration
	group singleflight.Group
}

// NewBouquetCatalog builds the catalog. cache may be nil to disable caching.
func NewBouquetCatalog(repo BouquetRepository, cache *CacheService, ttl time.Duration) *BouquetCatalog {
	return &BouquetCatalog{repo: repo, cache: cache, ttl: ttl}
}

func (c *BouquetCatalog) Active(ctx context.Context) ([]models.BouquetSummary, error) {
	if c.cache != nil {
		var cached []models.BouquetSummary
		hit, err := c.cache.Get(ctx, catalogCacheKey, &cached)
		if err != nil {
			logger.From(ctx).Warn("bouquet cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	v, err, _ := c.group.Do(catalogCacheKey, func() (any, error) {
		list, err := c.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, catalogCacheKey, list, c.ttl); err != nil {
				logger.From(ctx).Warn("bouquet cache write failed", zap.Error(err))
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.BouquetSummary), nil
}

// Invalidate drops the cached catalog.
func (c *BouquetCatalog) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, catalogCacheKey)
}

// ActivePrice is always read from the database so payments use the current price.
func (c *BouquetCatalog) ActivePrice(ctx context.Context, id string) (int64, error) {
	return c.repo.ActivePrice(ctx, id)
}
