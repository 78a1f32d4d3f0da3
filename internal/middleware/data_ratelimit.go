package middleware

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/patience-portal/pkg/clientip"
)

// Data endpoint rate limit: per-IP, different limits for requests with and
// without a bearer token. The portal dashboard loads several resources at
// once, so authenticated callers get a larger burst.
const (
	dataAuthRPS   = 0.5 // 30/min
	dataAuthBurst = 20
	dataAnonRPS   = 0.17 // ~10/min
	dataAnonBurst = 5

	// DataPath is the read-only resource endpoint.
	DataPath = "/api/subscriber/data"
)

type DataRateLimit struct {
	trustProxy bool
	auth       *IPRateLimiter
	anon       *IPRateLimiter
}

func NewDataRateLimit(trustProxy bool) *DataRateLimit {
	return &DataRateLimit{
		trustProxy: trustProxy,
		auth:       NewIPRateLimiter(rate.Limit(dataAuthRPS), dataAuthBurst),
		anon:       NewIPRateLimiter(rate.Limit(dataAnonRPS), dataAnonBurst),
	}
}

func hasBearer(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && len(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))) > 0
}

// Handler applies the limit only to GET DataPath.
func (d *DataRateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != DataPath {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.FromRequest(r, d.trustProxy)
		limiter := d.anon
		if hasBearer(r) {
			limiter = d.auth
		}
		if !limiter.Allow(ip) {
			writeTooManyRequests(w, "Trop de requêtes. Veuillez ralentir.", limiter.Burst(), 2*time.Second)
			return
		}
		next.ServeHTTP(w, r)
	})
}
