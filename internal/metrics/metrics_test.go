package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg, reg)
	require.NoError(t, err)
	return m
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := newTestMetrics(t)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	body := scrape(t, m)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/items/{id}",status="418"} 3`)
	assert.Contains(t, body, "http_inflight_requests 0")
	assert.NotContains(t, body, `route="/items/1"`)
}

func TestDomainCounters(t *testing.T) {
	m := newTestMetrics(t)
	m.AuthAttempt("login", "success")
	m.AuthAttempt("login", "invalid_credential")
	m.AuthAttempt("login", "success")
	m.PaymentRequested("mtn_momo")
	m.TicketCreated()

	body := scrape(t, m)
	assert.Contains(t, body, `portal_auth_attempts_total{action="login",result="success"} 2`)
	assert.Contains(t, body, `portal_auth_attempts_total{action="login",result="invalid_credential"} 1`)
	assert.Contains(t, body, `portal_payment_requests_total{method="mtn_momo"} 1`)
	assert.Contains(t, body, "portal_tickets_created_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AuthAttempt("check", "success")
	m.PaymentRequested("orange_money")
	m.TicketCreated()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg, reg)
	require.NoError(t, err)
	second, err := New(reg, reg)
	require.NoError(t, err)

	second.TicketCreated()
	assert.Contains(t, scrape(t, first), "portal_tickets_created_total 1")
}
