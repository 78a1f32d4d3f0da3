package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/store"
)

type fakeSubscribers struct {
	mu       sync.Mutex
	byID     map[string]*models.Subscriber
	bouquets *fakeBouquets
	findErr  error
}

func newFakeSubscribers(b *fakeBouquets) *fakeSubscribers {
	return &fakeSubscribers{byID: make(map[string]*models.Subscriber), bouquets: b}
}

func (f *fakeSubscribers) add(name, phone string, zoneID, bouquetID *string) *models.Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.Subscriber{ID: uuid.NewString(), Name: name, Phone: phone, ZoneID: zoneID, BouquetID: bouquetID, CreatedAt: time.Now()}
	f.byID[s.ID] = s
	return s
}

func (f *fakeSubscribers) get(id string) models.Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeSubscribers) FindByPhone(_ context.Context, phone string) (*models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, s := range f.byID {
		if s.Phone == phone {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSubscribers) FindByID(_ context.Context, id string) (*models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubscribers) SetPINIfUnset(_ context.Context, id, pinHash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if s.PINHash != nil {
		return store.ErrConflict
	}
	h := pinHash
	s.PINHash = &h
	s.PINSetAt = &at
	s.LastLoginAt = &at
	return nil
}

func (f *fakeSubscribers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	s.LastLoginAt = &at
	return nil
}

func (f *fakeSubscribers) Profile(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := &models.Profile{ID: s.ID, Name: s.Name, Phone: s.Phone, SubscriptionStatus: models.SubscriptionActive, SignalActive: true}
	if s.BouquetID != nil {
		if b, ok := f.bouquets.byID(*s.BouquetID); ok {
			p.Bouquet = &b
		}
	}
	return p, nil
}

func (f *fakeSubscribers) BillingInfo(_ context.Context, id string) (*models.BillingInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	info := &models.BillingInfo{SubscriberID: s.ID, BouquetID: s.BouquetID}
	if s.BouquetID != nil {
		if b, ok := f.bouquets.byID(*s.BouquetID); ok {
			info.Price = b.Price
		}
	}
	return info, nil
}

type fakeBouquets struct {
	mu       sync.Mutex
	items    []models.Bouquet
	listCall int
	listErr  error
}

func (f *fakeBouquets) add(name string, price int64, active bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.items = append(f.items, models.Bouquet{ID: id, Name: name, Price: price, IsActive: active})
	return id
}

func (f *fakeBouquets) byID(id string) (models.BouquetSummary, bool) {
	for _, b := range f.items {
		if b.ID == id {
			return models.BouquetSummary{ID: b.ID, Name: b.Name, Price: b.Price}, true
		}
	}
	return models.BouquetSummary{}, false
}

func (f *fakeBouquets) ListActive(context.Context) ([]models.BouquetSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCall++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.BouquetSummary{}
	for _, b := range f.items {
		if b.IsActive {
			out = append(out, models.BouquetSummary{ID: b.ID, Name: b.Name, Price: b.Price})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (f *fakeBouquets) ActivePrice(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.items {
		if b.ID == id && b.IsActive {
			return b.Price, nil
		}
	}
	return 0, store.ErrNotFound
}

func (f *fakeBouquets) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCall
}

type fakePayments struct {
	mu       sync.Mutex
	history  map[string][]models.Payment
	requests map[string]*models.PaymentRequest
}

func newFakePayments() *fakePayments {
	return &fakePayments{history: make(map[string][]models.Payment), requests: make(map[string]*models.PaymentRequest)}
}

func (f *fakePayments) History(_ context.Context, subscriberID string, limit int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append([]models.Payment(nil), f.history[subscriberID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].PaymentDate.After(list[j].PaymentDate) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakePayments) CreateRequest(_ context.Context, pr *models.PaymentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *pr
	f.requests[pr.ID] = &cp
	return nil
}

func (f *fakePayments) UpdateRequestStatus(_ context.Context, id string, status models.PaymentRequestStatus, ref *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	pr.Status = status
	if ref != nil {
		r := *ref
		pr.ExternalRef = &r
	}
	pr.UpdatedAt = at
	return nil
}

func (f *fakePayments) GetRequest(_ context.Context, id, subscriberID string) (*models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.requests[id]
	if !ok || pr.SubscriberID != subscriberID {
		return nil, store.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (f *fakePayments) request(id string) models.PaymentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.requests[id]
}

type fakeTickets struct {
	mu   sync.Mutex
	seq  int
	list map[string][]models.SupportTicket
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{list: make(map[string][]models.SupportTicket)}
}

func (f *fakeTickets) ListBySubscriber(_ context.Context, subscriberID string, limit int) ([]models.SupportTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.list[subscriberID]
	out := make([]models.SupportTicket, 0, len(list))
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (f *fakeTickets) Create(_ context.Context, nt models.NewTicket) (*models.SupportTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := models.SupportTicket{
		ID:           uuid.NewString(),
		TicketNumber: fmt.Sprintf("TKT-%06d", f.seq),
		SubscriberID: nt.SubscriberID,
		ZoneID:       nt.ZoneID,
		Subject:      nt.Subject,
		Description:  nt.Description,
		Priority:     nt.Priority,
		Status:       models.TicketOpen,
		CreatedAt:    time.Now(),
	}
	f.list[nt.SubscriberID] = append(f.list[nt.SubscriberID], t)
	return &t, nil
}

type stubRail struct {
	mu    sync.Mutex
	err   error
	calls []RailRequest
}

func (r *stubRail) RequestToPay(_ context.Context, req RailRequest) (*RailResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if r.err != nil {
		return nil, r.err
	}
	return &RailResponse{Reference: "REF-" + req.PaymentID[:8], Status: "accepted"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// testClock is a settable clock shared by services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: time.Now().UTC()} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// fixture wires every service against in-memory repositories and miniredis.
type fixture struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	clock    *testClock
	subs     *fakeSubscribers
	bouquets *fakeBouquets
	payments *fakePayments
	tickets  *fakeTickets
	rail     *stubRail
	events   *recordingPublisher

	sessions *SessionService
	auth     *AuthService
	portal   *PortalService
	payment  *PaymentService
	ticket   *TicketService
}

const testSecret = "test-pin-secret"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, rdb := newTestRedis(t)
	f := &fixture{
		mr:       mr,
		rdb:      rdb,
		clock:    newTestClock(),
		bouquets: &fakeBouquets{},
		payments: newFakePayments(),
		tickets:  newFakeTickets(),
		rail:     &stubRail{},
		events:   &recordingPublisher{},
	}
	f.subs = newFakeSubscribers(f.bouquets)
	f.sessions = NewSessionService(NewRedisSessionStore(rdb), SessionDuration, WithClock(f.clock.Now))
	f.auth = NewAuthService(f.subs, f.sessions, testSecret)
	catalog := NewBouquetCatalog(f.bouquets, NewCacheService(rdb), time.Minute)
	f.portal = NewPortalService(f.sessions, f.subs, f.payments, f.tickets, catalog)
	f.payment = NewPaymentService(f.sessions, f.subs, f.payments, catalog, f.rail, f.events)
	f.ticket = NewTicketService(f.sessions, f.subs, f.tickets)
	return f
}

// login enrolls a fresh subscriber and returns their token.
func (f *fixture) login(t *testing.T, bouquetID *string) (string, *models.Subscriber) {
	t.Helper()
	phone := fmt.Sprintf("+2376%08d", len(f.subs.byID)+10000000)
	zone := "zone-" + uuid.NewString()[:4]
	sub := f.subs.add("Abonné test", phone, &zone, bouquetID)
	res, err := f.auth.Enroll(context.Background(), phone, "4321")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return res.Token, sub
}
