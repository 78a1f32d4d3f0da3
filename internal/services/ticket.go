package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/store"
)

const (
	SubjectMinLength     = 5
	SubjectMaxLength     = 200
	DescriptionMinLength = 10
	DescriptionMaxLength = 2000
)

type CreateTicketInput struct {
	Subject     string
	Description string
	Priority    string
}

type TicketResult struct {
	Ticket  *models.SupportTicket
	Message string
}

type TicketService struct {
	sessions *SessionService
	subs     SubscriberRepository
	tickets  TicketRepository
}

func NewTicketService(sessions *SessionService, subs SubscriberRepository, tickets TicketRepository) *TicketService {
	return &TicketService{sessions: sessions, subs: subs, tickets: tickets}
}

// Create opens a support ticket in the subscriber's zone.
func (s *TicketService) Create(ctx context.Context, token string, in CreateTicketInput) (*TicketResult, error) {
	subscriberID, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(in.Subject)
	if utf8.RuneCountInString(subject) < SubjectMinLength {
		return nil, newError(KindValidation, MsgSubjectTooShort)
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) < DescriptionMinLength {
		return nil, newError(KindValidation, MsgDescTooShort)
	}

	priority := models.TicketPriority(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, newError(KindValidation, MsgInvalidPriority)
	}

	sub, err := s.subs.FindByID(ctx, subscriberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, MsgSubscriberMissing)
	}
	if err != nil {
		return nil, internalError(err)
	}

	ticket, err := s.tickets.Create(ctx, models.NewTicket{
		SubscriberID: subscriberID,
		ZoneID:       sub.ZoneID,
		Subject:      truncateRunes(subject, SubjectMaxLength),
		Description:  truncateRunes(description, DescriptionMaxLength),
		Priority:     priority,
	})
	if err != nil {
		return nil, internalError(err)
	}

	return &TicketResult{
		Ticket:  ticket,
		Message: fmt.Sprintf("Votre ticket #%s a été créé. Notre équipe vous contactera bientôt.", ticket.TicketNumber),
	}, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
