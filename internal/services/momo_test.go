package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

func railRequest() RailRequest {
	return RailRequest{PaymentID: "4f1c7c1e-0000-4000-8000-000000000001", Method: models.PaymentMTNMoMo, PhoneNumber: "677123456", Amount: 5000, Currency: PaymentCurrency}
}

func TestHTTPRail_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/requesttopay", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "4f1c7c1e-0000-4000-8000-000000000001", r.Header.Get("X-Reference-Id"))

		var body RailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5000), body.Amount)
		assert.Equal(t, models.PaymentMTNMoMo, body.Method)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"reference":"MTN-123","status":"pending"}`))
	}))
	defer srv.Close()

	rail := NewHTTPRail(srv.URL+"/", "secret-key", time.Second)
	resp, err := rail.RequestToPay(context.Background(), railRequest())
	require.NoError(t, err)
	assert.Equal(t, "MTN-123", resp.Reference)
	assert.Equal(t, "pending", resp.Status)
}

func TestHTTPRail_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"payer not found"}`))
	}))
	defer srv.Close()

	rail := NewHTTPRail(srv.URL, "", time.Second)
	for i := 0; i < railFailureThreshold+2; i++ {
		_, err := rail.RequestToPay(context.Background(), railRequest())
		require.ErrorIs(t, err, ErrRailRejected)
		assert.Contains(t, err.Error(), "payer not found")
	}
}

func TestHTTPRail_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rail := NewHTTPRail(srv.URL, "", time.Second)
	for i := 0; i < railFailureThreshold; i++ {
		_, err := rail.RequestToPay(context.Background(), railRequest())
		require.ErrorIs(t, err, ErrRailUnavailable)
	}
	_, err := rail.RequestToPay(context.Background(), railRequest())
	require.ErrorIs(t, err, ErrRailUnavailable)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, int32(railFailureThreshold), atomic.LoadInt32(&hits))
}

func TestHTTPRail_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rail := NewHTTPRail(url, "", 200*time.Millisecond)
	_, err := rail.RequestToPay(context.Background(), railRequest())
	require.True(t, errors.Is(err, ErrRailUnavailable))
}

func TestSimulatedRail(t *testing.T) {
	resp, err := SimulatedRail{}.RequestToPay(context.Background(), railRequest())
	require.NoError(t, err)
	assert.Regexp(t, `^SIM-`, resp.Reference)
}
