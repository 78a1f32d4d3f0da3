package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/patience-portal/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	globalRateLimitRPS   = 5
	globalRateLimitBurst = 20

	// Each sign-in is a check followed by set-pin or login, so the burst
	// allows a couple of attempts before throttling.
	authRateLimitEvery = 3 * time.Second
	authRateLimitBurst = 6
)

// AuthPath is the subscriber auth endpoint, throttled more tightly than the rest.
const AuthPath = "/api/subscriber/auth"

// RateLimits bundles the per-IP limiters used in production.
type RateLimits struct {
	TrustProxy bool
	Global     *IPRateLimiter
	Auth       *IPRateLimiter
}

func NewRateLimits(trustProxy bool) *RateLimits {
	return &RateLimits{
		TrustProxy: trustProxy,
		Global:     NewIPRateLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst),
		Auth:       NewIPRateLimiter(rate.Every(authRateLimitEvery), authRateLimitBurst),
	}
}

// GlobalRateLimit limits every request per client IP.
func (rl *RateLimits) GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.FromRequest(r, rl.TrustProxy)
		if !rl.Global.Allow(ip) {
			writeTooManyRequests(w, "Trop de requêtes. Veuillez ralentir.", rl.Global.Burst(), time.Second)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRateLimit applies the stricter limit to the auth endpoint only. Use after GlobalRateLimit.
func (rl *RateLimits) AuthRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AuthPath || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.FromRequest(r, rl.TrustProxy)
		if !rl.Auth.Allow(ip) {
			writeTooManyRequests(w, "Trop de tentatives. Réessayez plus tard.", rl.Auth.Burst(), authRateLimitEvery)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → AuthRateLimit.
func ProductionSecurity(allowedHost string, rl *RateLimits) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		rl.GlobalRateLimit,
		rl.AuthRateLimit,
	}
}
