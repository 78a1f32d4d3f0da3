package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
)

// RailRequest asks a mobile-money operator to prompt the payer.
type RailRequest struct {
	PaymentID   string               `json:"paymentId"`
	Method      models.PaymentMethod `json:"paymentMethod"`
	PhoneNumber string               `json:"phoneNumber"`
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
}

// RailResponse is the operator's acknowledgement.
type RailResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// MobileMoneyRail hands a payment request to an operator. Settlement is
// reported out of band; RequestToPay only confirms the prompt was sent.
type MobileMoneyRail interface {
	RequestToPay(ctx context.Context, req RailRequest) (*RailResponse, error)
}

var (
	ErrRailUnavailable = errors.New("mobile money rail unavailable")
	ErrRailRejected    = errors.New("mobile money rail rejected request")
)

// SimulatedRail accepts every request. It is the default when no operator
// endpoint is configured.
type SimulatedRail struct{}

func (SimulatedRail) RequestToPay(ctx context.Context, req RailRequest) (*RailResponse, error) {
	logger.From(ctx).Info("simulated mobile money prompt",
		zap.String("payment_id", req.PaymentID),
		zap.String("method", string(req.Method)),
		zap.Int64("amount", req.Amount))
	return &RailResponse{Reference: "SIM-" + uuid.NewString(), Status: "accepted"}, nil
}

const (
	railBreakerName      = "momo-rail"
	railFailureThreshold = 5
	railOpenTimeout      = 30 * time.Second
)

// HTTPRail posts requests to an operator aggregator behind a circuit breaker.
type HTTPRail struct {
	client  *resty.Client
	cb      *gobreaker.CircuitBreaker
	baseURL string
}

func NewHTTPRail(baseURL, apiKey string, timeout time.Duration) *HTTPRail {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    railBreakerName,
		Timeout: railOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= railFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &HTTPRail{client: client, cb: cb, baseURL: strings.TrimRight(baseURL, "/")}
}

type railError struct {
	Message string `json:"message"`
}

func (r *HTTPRail) RequestToPay(ctx context.Context, req RailRequest) (*RailResponse, error) {
	result, err := r.cb.Execute(func() (any, error) {
		var (
			out    RailResponse
			apiErr railError
		)
		resp, err := r.client.R().
			SetContext(ctx).
			SetHeader("X-Reference-Id", req.PaymentID).
			SetBody(req).
			SetResult(&out).
			SetError(&apiErr).
			Post(r.baseURL + "/requesttopay")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRailUnavailable, err)
		}

		status := resp.StatusCode()
		if status >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrRailUnavailable, status)
		}
		// 4xx is the payer's or our problem, not the rail's; keep it out of the breaker counts.
		if status >= 400 {
			return fmt.Errorf("%w: status %d: %s", ErrRailRejected, status, apiErr.Message), nil
		}
		if out.Reference == "" {
			out.Reference = req.PaymentID
		}
		return &out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrRailUnavailable)
		}
		return nil, err
	}
	if rejected, ok := result.(error); ok {
		return nil, rejected
	}
	return result.(*RailResponse), nil
}
