package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of requests allowed per IP in one window.
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 1 * time.Hour
)

// RedisRateLimiter is a fixed-window counter shared by every instance.
// An IP that exceeds the window is blocked for BlockedIPDuration. Redis
// errors fail open.
type RedisRateLimiter struct {
	rdb        *redis.Client
	trustProxy bool
	max        int64
	window     time.Duration
	block      time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, trustProxy bool) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:        rdb,
		trustProxy: trustProxy,
		max:        RateLimitMaxRequests,
		window:     RateLimitWindow,
		block:      BlockedIPDuration,
	}
}

func (l *RedisRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.FromRequest(r, l.trustProxy)
		ctx := r.Context()

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			writeTooManyRequests(w, "Votre adresse IP est temporairement bloquée. Réessayez plus tard.", 0, l.block)
			return
		}

		key := RateLimitKeyPrefix + ip
		count, err := l.rdb.Incr(ctx, key).Result()
		if err == nil && count == 1 {
			err = l.rdb.Expire(ctx, key, l.window).Err()
		}
		if err != nil {
			logger.From(ctx).Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			if err := l.rdb.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.block).Err(); err != nil {
				logger.From(ctx).Warn("failed to block ip", logger.ClientIP(ip), zap.Error(err))
			} else {
				logger.From(ctx).Warn("ip blocked for excessive requests", logger.ClientIP(ip), zap.Int64("count", count))
			}
			writeTooManyRequests(w, "Limite de requêtes dépassée. Réessayez plus tard.", int(l.max), l.window)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.max-count, 10))
		next.ServeHTTP(w, r)
	})
}

// Unblock removes an IP from the blocked list.
func (l *RedisRateLimiter) Unblock(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}

// IsBlocked checks if an IP is currently blocked
func (l *RedisRateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.rdb.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}
