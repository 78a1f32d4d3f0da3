package services

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/store"
)

// Resource names a read-only portal view.
type Resource string

const (
	ResourceProfile  Resource = "profile"
	ResourcePayments Resource = "payments"
	ResourceTickets  Resource = "tickets"
	ResourceBouquets Resource = "bouquets"
)

const (
	PaymentHistoryLimit = 20
	TicketHistoryLimit  = 10
)

type PaymentRepository interface {
	History(ctx context.Context, subscriberID string, limit int) ([]models.Payment, error)
	CreateRequest(ctx context.Context, pr *models.PaymentRequest) error
	UpdateRequestStatus(ctx context.Context, id string, status models.PaymentRequestStatus, externalRef *string, at time.Time) error
	GetRequest(ctx context.Context, id, subscriberID string) (*models.PaymentRequest, error)
}

type TicketRepository interface {
	ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]models.SupportTicket, error)
	Create(ctx context.Context, nt models.NewTicket) (*models.SupportTicket, error)
}

// PortalService serves the subscriber's own data after authorizing the token.
type PortalService struct {
	sessions *SessionService
	subs     SubscriberRepository
	payments PaymentRepository
	tickets  TicketRepository
	catalog  *BouquetCatalog
}

func NewPortalService(sessions *SessionService, subs SubscriberRepository, payments PaymentRepository, tickets TicketRepository, catalog *BouquetCatalog) *PortalService {
	return &PortalService{sessions: sessions, subs: subs, payments: payments, tickets: tickets, catalog: catalog}
}

// Fetch returns the named resource. The token is checked before the
// resource name, so an unauthenticated caller learns nothing.
func (p *PortalService) Fetch(ctx context.Context, token string, resource Resource) (any, error) {
	subscriberID, err := p.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	switch resource {
	case ResourceProfile:
		profile, err := p.subs.Profile(ctx, subscriberID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, MsgSubscriberMissing)
		}
		if err != nil {
			return nil, internalError(err)
		}
		return profile, nil

	case ResourcePayments:
		list, err := p.payments.History(ctx, subscriberID, PaymentHistoryLimit)
		if err != nil {
			return nil, internalError(err)
		}
		return list, nil

	case ResourceTickets:
		list, err := p.tickets.ListBySubscriber(ctx, subscriberID, TicketHistoryLimit)
		if err != nil {
			return nil, internalError(err)
		}
		return list, nil

	case ResourceBouquets:
		list, err := p.catalog.Active(ctx)
		if err != nil {
			return nil, internalError(err)
		}
		return list, nil
	}

	return nil, newError(KindValidation, MsgUnknownResource)
}
