package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	limiterTTL             = 30 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// IPRateLimiter keeps one token bucket per key. Idle buckets expire from
// the cache after limiterTTL.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries *cache.Cache
	limit   rate.Limit
	burst   int
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		entries: cache.New(limiterTTL, limiterCleanupInterval),
		limit:   limit,
		burst:   burst,
	}
}

func (l *IPRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.entries.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.entries.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.entries.SetDefault(key, lim)
	return lim
}

// Allow consumes one token for key.
func (l *IPRateLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Burst is the bucket size, reported in X-RateLimit-Limit.
func (l *IPRateLimiter) Burst() int {
	return l.burst
}

func writeTooManyRequests(w http.ResponseWriter, message string, limit int, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", "0")
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
