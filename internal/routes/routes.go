package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/patience-portal/internal/handlers"
	"github.com/AnshRaj112/patience-portal/internal/metrics"
	"github.com/AnshRaj112/patience-portal/internal/middleware"
)

// Options selects the middleware stack around the portal routes.
type Options struct {
	AllowedOrigins []string
	TrustProxy     bool
	Metrics        *metrics.Metrics

	// Security is the production chain (headers, host check, per-IP limits).
	// When nil, RedisLimiter is used instead, if set.
	Security     []func(http.Handler) http.Handler
	RedisLimiter *middleware.RedisRateLimiter
	DataLimit    *middleware.DataRateLimit
}

// NewRouter builds the HTTP surface. /health and /metrics sit outside the
// rate limiters.
func NewRouter(h *handlers.Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.TrustProxy))
	r.Use(chimw.Recoverer)
	r.Use(opts.Metrics.Middleware)

	// CORS first so preflight gets 200 before any limiter sees it.
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if opts.Security != nil {
			for _, mw := range opts.Security {
				r.Use(mw)
			}
		} else if opts.RedisLimiter != nil {
			r.Use(opts.RedisLimiter.Handler)
		}
		if opts.DataLimit != nil {
			r.Use(opts.DataLimit.Handler)
		}
		SetupRoutes(r, h)
	})
	return r
}

// SetupRoutes registers the subscriber portal endpoints.
func SetupRoutes(r chi.Router, h *handlers.Handler) {
	r.Post(middleware.AuthPath, h.SubscriberAuth)
	r.Get(middleware.DataPath, h.SubscriberData)
	r.Post("/api/subscriber/payment", h.SubscriberPayment)
	r.Post("/api/subscriber/ticket", h.SubscriberTicket)

	// Payment status push
	r.Get("/ws/subscriber/payments", h.PaymentEvents)
}
