package models

import "time"

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type SupportTicket struct {
	ID              string         `json:"id"`
	TicketNumber    string         `json:"ticket_number"`
	SubscriberID    string         `json:"-"`
	ZoneID          *string        `json:"-"`
	Subject         string         `json:"subject"`
	Description     string         `json:"description"`
	Status          TicketStatus   `json:"status"`
	Priority        TicketPriority `json:"priority"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	ResolutionNotes *string        `json:"resolution_notes"`
}

// NewTicket is the validated input for ticket creation.
type NewTicket struct {
	SubscriberID string
	ZoneID       *string
	Subject      string
	Description  string
	Priority     TicketPriority
}
