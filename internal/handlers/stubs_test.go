package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
)

func expired() error {
	return &services.Error{Kind: services.KindUnauthorized, Message: services.MsgSessionExpired}
}

type stubAuth struct {
	mu       sync.Mutex
	sessions map[string]string
	checkRes *services.CheckResult
	authRes  *services.AuthResult
	err      error
	calls    []string
}

func newStubAuth() *stubAuth {
	return &stubAuth{sessions: map[string]string{"tok-1": "sub-1"}}
}

func (s *stubAuth) called(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *stubAuth) Check(ctx context.Context, phone string) (*services.CheckResult, error) {
	s.called("check " + phone)
	if s.err != nil {
		return nil, s.err
	}
	return s.checkRes, nil
}

func (s *stubAuth) Enroll(ctx context.Context, phone, pin string) (*services.AuthResult, error) {
	s.called("set-pin " + phone + " " + pin)
	if s.err != nil {
		return nil, s.err
	}
	return s.authRes, nil
}

func (s *stubAuth) Login(ctx context.Context, phone, pin string) (*services.AuthResult, error) {
	s.called("login " + phone + " " + pin)
	if s.err != nil {
		return nil, s.err
	}
	return s.authRes, nil
}

func (s *stubAuth) Logout(ctx context.Context, token string) {
	s.called("logout " + token)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *stubAuth) Validate(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sessions[token]; ok {
		return id, nil
	}
	return "", expired()
}

func (s *stubAuth) revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

type stubPortal struct {
	data     any
	err      error
	calls    int
	token    string
	resource services.Resource
}

func (s *stubPortal) Fetch(ctx context.Context, token string, resource services.Resource) (any, error) {
	s.calls++
	s.token, s.resource = token, resource
	return s.data, s.err
}

type stubPayments struct {
	quote      *services.Quote
	initiation *services.Initiation
	request    *models.PaymentRequest
	err        error

	calls     int
	months    int
	bouquetID string
	input     services.InitiatePaymentInput
	paymentID string
}

func (s *stubPayments) Calculate(ctx context.Context, token string, months int, bouquetID string) (*services.Quote, error) {
	s.calls++
	s.months, s.bouquetID = months, bouquetID
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func (s *stubPayments) Initiate(ctx context.Context, token string, in services.InitiatePaymentInput) (*services.Initiation, error) {
	s.calls++
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return s.initiation, nil
}

func (s *stubPayments) Status(ctx context.Context, token, paymentID string) (*models.PaymentRequest, error) {
	s.calls++
	s.paymentID = paymentID
	if s.err != nil {
		return nil, s.err
	}
	return s.request, nil
}

type stubTickets struct {
	result *services.TicketResult
	err    error
	input  services.CreateTicketInput
	calls  int
}

func (s *stubTickets) Create(ctx context.Context, token string, in services.CreateTicketInput) (*services.TicketResult, error) {
	s.calls++
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []models.Activity
}

func (r *recordingActivity) Record(ctx context.Context, a models.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
}

func (r *recordingActivity) last() models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return models.Activity{}
	}
	return r.entries[len(r.entries)-1]
}

// signalingEvents reports each subscription so tests know when a socket is listening.
type signalingEvents struct {
	hub        *services.PaymentEventHub
	subscribed chan string
}

func (s *signalingEvents) Subscribe(id string) *services.PaymentSubscription {
	sub := s.hub.Subscribe(id)
	s.subscribed <- id
	return sub
}

func (s *signalingEvents) Unsubscribe(sub *services.PaymentSubscription) {
	s.hub.Unsubscribe(sub)
}

var testExpiry = time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
