package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/store"
	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

const (
	MinPaymentMonths = 1
	MaxPaymentMonths = 12
	PaymentCurrency  = "XAF"
)

// Quote is the server-side price of a subscription renewal.
type Quote struct {
	PricePerMonth int64
	Months        int
	Amount        int64
}

type InitiatePaymentInput struct {
	Method      models.PaymentMethod
	PhoneNumber string
	Months      int
	BouquetID   string
}

// Initiation is what the subscriber needs to confirm the payment on their phone.
type Initiation struct {
	PaymentID    string
	Amount       int64
	Status       models.PaymentRequestStatus
	Message      string
	Instructions string
}

// PaymentService prices renewals and hands mobile-money requests to the rail.
type PaymentService struct {
	sessions *SessionService
	subs     SubscriberRepository
	payments PaymentRepository
	catalog  *BouquetCatalog
	rail     MobileMoneyRail
	events   EventPublisher
	now      func() time.Time
}

func NewPaymentService(sessions *SessionService, subs SubscriberRepository, payments PaymentRepository,
	catalog *BouquetCatalog, rail MobileMoneyRail, events EventPublisher) *PaymentService {
	return &PaymentService{
		sessions: sessions,
		subs:     subs,
		payments: payments,
		catalog:  catalog,
		rail:     rail,
		events:   events,
		now:      time.Now,
	}
}

// Calculate prices months of the current bouquet, or of bouquetID when it
// names a different active bouquet.
func (s *PaymentService) Calculate(ctx context.Context, token string, months int, bouquetID string) (*Quote, error) {
	subscriberID, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, subscriberID, months, bouquetID)
}

func (s *PaymentService) quote(ctx context.Context, subscriberID string, months int, bouquetID string) (*Quote, error) {
	if months == 0 {
		months = MinPaymentMonths
	}
	if months < MinPaymentMonths || months > MaxPaymentMonths {
		return nil, newError(KindValidation, MsgInvalidMonths)
	}

	info, err := s.subs.BillingInfo(ctx, subscriberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, MsgSubscriberMissing)
	}
	if err != nil {
		return nil, internalError(err)
	}

	price := info.Price
	if bouquetID != "" && (info.BouquetID == nil || *info.BouquetID != bouquetID) {
		if _, perr := uuid.Parse(bouquetID); perr != nil {
			return nil, newError(KindNotFound, MsgBouquetNotFound)
		}
		price, err = s.catalog.ActivePrice(ctx, bouquetID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, MsgBouquetNotFound)
		}
		if err != nil {
			return nil, internalError(err)
		}
	}

	return &Quote{PricePerMonth: price, Months: months, Amount: price * int64(months)}, nil
}

// Initiate records a pending request, prompts the payer through the rail and
// moves the request to processing. Settlement happens out of band.
func (s *PaymentService) Initiate(ctx context.Context, token string, in InitiatePaymentInput) (*Initiation, error) {
	subscriberID, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !in.Method.IsMobileMoney() {
		return nil, newError(KindValidation, MsgInvalidMethod)
	}
	phone, err := utils.ValidatePaymentNumber(in.PhoneNumber)
	if err != nil {
		return nil, newError(KindValidation, err.Error())
	}

	q, err := s.quote(ctx, subscriberID, in.Months, in.BouquetID)
	if err != nil {
		return nil, err
	}
	if q.Amount <= 0 {
		return nil, newError(KindValidation, MsgNoBouquetPrice)
	}

	log := logger.From(ctx).With(logger.SubscriberID(subscriberID))
	now := s.now().UTC()
	pr := &models.PaymentRequest{
		ID:            uuid.NewString(),
		SubscriberID:  subscriberID,
		Amount:        q.Amount,
		Months:        q.Months,
		PaymentMethod: in.Method,
		PhoneNumber:   phone,
		Status:        models.PaymentRequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.CreateRequest(ctx, pr); err != nil {
		return nil, internalError(err)
	}

	resp, err := s.rail.RequestToPay(ctx, RailRequest{
		PaymentID:   pr.ID,
		Method:      pr.PaymentMethod,
		PhoneNumber: pr.PhoneNumber,
		Amount:      pr.Amount,
		Currency:    PaymentCurrency,
	})
	if err != nil {
		log.Error("mobile money request failed", zap.String("payment_id", pr.ID), zap.Error(err))
		return nil, internalError(fmt.Errorf("request to pay %s: %w", pr.ID, err))
	}

	ref := resp.Reference
	if err := s.payments.UpdateRequestStatus(ctx, pr.ID, models.PaymentRequestProcessing, &ref, s.now().UTC()); err != nil {
		return nil, internalError(err)
	}
	pr.Status = models.PaymentRequestProcessing

	if s.events != nil {
		ev := models.PaymentEvent{PaymentID: pr.ID, SubscriberID: subscriberID, Status: pr.Status, Amount: pr.Amount}
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Warn("payment event publish failed", zap.String("payment_id", pr.ID), zap.Error(err))
		}
	}

	return &Initiation{
		PaymentID:    pr.ID,
		Amount:       pr.Amount,
		Status:       pr.Status,
		Message:      ConfirmationMessage(pr.Amount, pr.PaymentMethod),
		Instructions: PaymentInstructions(pr.PaymentMethod),
	}, nil
}

// Status returns one of the caller's own payment requests.
func (s *PaymentService) Status(ctx context.Context, token, paymentID string) (*models.PaymentRequest, error) {
	subscriberID, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(paymentID); err != nil {
		return nil, newError(KindNotFound, MsgPaymentNotFound)
	}
	pr, err := s.payments.GetRequest(ctx, paymentID, subscriberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, MsgPaymentNotFound)
	}
	if err != nil {
		return nil, internalError(err)
	}
	return pr, nil
}

func providerName(m models.PaymentMethod) string {
	if m == models.PaymentMTNMoMo {
		return "MTN"
	}
	return "Orange"
}

// ConfirmationMessage tells the payer what to expect on their handset.
func ConfirmationMessage(amount int64, m models.PaymentMethod) string {
	return fmt.Sprintf("Veuillez confirmer le paiement de %d FCFA sur votre téléphone %s.", amount, providerName(m))
}

// PaymentInstructions returns the USSD short code walkthrough for the operator.
func PaymentInstructions(m models.PaymentMethod) string {
	code := "#144#"
	if m == models.PaymentMTNMoMo {
		code = "*126#"
	}
	return fmt.Sprintf("Composez %s et suivez les instructions pour valider le paiement.", code)
}
