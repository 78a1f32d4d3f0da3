package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

type TicketStore struct {
	db *sql.DB
}

func NewTicketStore(db *sql.DB) *TicketStore {
	return &TicketStore{db: db}
}

// ListBySubscriber returns the subscriber's tickets, newest first.
func (s *TicketStore) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]models.SupportTicket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_number, subject, description, status, priority,
		       created_at, updated_at, resolved_at, resolution_notes
		FROM support_tickets
		WHERE subscriber_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]models.SupportTicket, 0, limit)
	for rows.Next() {
		var (
			t        models.SupportTicket
			resolved sql.NullTime
			notes    sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TicketNumber, &t.Subject, &t.Description, &t.Status, &t.Priority,
			&t.CreatedAt, &t.UpdatedAt, &resolved, &notes); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.SubscriberID = subscriberID
		t.ResolvedAt = nullTime(resolved)
		t.ResolutionNotes = nullString(notes)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts an open ticket. The ticket number comes from generate_ticket_number().
func (s *TicketStore) Create(ctx context.Context, nt models.NewTicket) (*models.SupportTicket, error) {
	t := models.SupportTicket{
		ID:           uuid.NewString(),
		SubscriberID: nt.SubscriberID,
		ZoneID:       nt.ZoneID,
		Subject:      nt.Subject,
		Description:  nt.Description,
		Priority:     nt.Priority,
		Status:       models.TicketOpen,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO support_tickets (id, ticket_number, subscriber_id, zone_id, subject, description, status, priority)
		VALUES ($1, generate_ticket_number(), $2, $3, $4, $5, $6, $7)
		RETURNING ticket_number, created_at, updated_at`,
		t.ID, t.SubscriberID, toNullString(t.ZoneID), t.Subject, t.Description, t.Status, t.Priority,
	).Scan(&t.TicketNumber, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return &t, nil
}
