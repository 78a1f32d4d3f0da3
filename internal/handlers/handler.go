// Package handlers exposes the subscriber portal over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/metrics"
	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
	"github.com/AnshRaj112/patience-portal/pkg/clientip"
)

type Authenticator interface {
	Check(ctx context.Context, phone string) (*services.CheckResult, error)
	Enroll(ctx context.Context, phone, pin string) (*services.AuthResult, error)
	Login(ctx context.Context, phone, pin string) (*services.AuthResult, error)
	Logout(ctx context.Context, token string)
	Validate(ctx context.Context, token string) (string, error)
}

type PortalReader interface {
	Fetch(ctx context.Context, token string, resource services.Resource) (any, error)
}

type PaymentProcessor interface {
	Calculate(ctx context.Context, token string, months int, bouquetID string) (*services.Quote, error)
	Initiate(ctx context.Context, token string, in services.InitiatePaymentInput) (*services.Initiation, error)
	Status(ctx context.Context, token, paymentID string) (*models.PaymentRequest, error)
}

type TicketCreator interface {
	Create(ctx context.Context, token string, in services.CreateTicketInput) (*services.TicketResult, error)
}

// PaymentEvents is the local side of the payment event hub.
type PaymentEvents interface {
	Subscribe(subscriberID string) *services.PaymentSubscription
	Unsubscribe(s *services.PaymentSubscription)
}

// HealthCheck pings one backing store.
type HealthCheck func(ctx context.Context) error

// Deps wires the handlers. Activity, Metrics and Events may be nil.
type Deps struct {
	Auth     Authenticator
	Portal   PortalReader
	Payments PaymentProcessor
	Tickets  TicketCreator
	Events   PaymentEvents
	Activity services.ActivityRecorder
	Metrics  *metrics.Metrics

	Checks         map[string]HealthCheck
	AllowedOrigins []string
	TrustProxy     bool

	// SessionCheckInterval is how often an open payment socket re-validates
	// its session. Defaults to 30s.
	SessionCheckInterval time.Duration
}

type Handler struct {
	auth     Authenticator
	portal   PortalReader
	payments PaymentProcessor
	tickets  TicketCreator
	events   PaymentEvents
	activity services.ActivityRecorder
	metrics  *metrics.Metrics

	checks         map[string]HealthCheck
	allowedOrigins []string
	trustProxy     bool
	sessionCheck   time.Duration
}

const defaultSessionCheckInterval = 30 * time.Second

func New(d Deps) *Handler {
	h := &Handler{
		auth:           d.Auth,
		portal:         d.Portal,
		payments:       d.Payments,
		tickets:        d.Tickets,
		events:         d.Events,
		activity:       d.Activity,
		metrics:        d.Metrics,
		checks:         d.Checks,
		allowedOrigins: d.AllowedOrigins,
		trustProxy:     d.TrustProxy,
		sessionCheck:   d.SessionCheckInterval,
	}
	if h.activity == nil {
		h.activity = services.NopActivity{}
	}
	if h.sessionCheck <= 0 {
		h.sessionCheck = defaultSessionCheckInterval
	}
	return h
}

// record adds an entry to the activity trail with the caller's IP and user agent.
func (h *Handler) record(r *http.Request, a models.Activity, err error) {
	a.Outcome = models.OutcomeSuccess
	if err != nil {
		a.Outcome = models.OutcomeFailure
		a.Reason = services.KindOf(err).String()
	}
	a.ClientIP = clientip.FromRequest(r, h.trustProxy)
	a.UserAgent = r.UserAgent()
	logger.From(r.Context()).Debug("portal activity",
		logger.Action(a.Action), logger.Phone(a.Phone), zap.String("outcome", string(a.Outcome)))
	h.activity.Record(r.Context(), a)
}

// outcome is the metrics label for a service result.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return services.KindOf(err).String()
}
