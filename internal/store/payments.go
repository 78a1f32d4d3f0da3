package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// History returns the subscriber's settled payments, newest first.
func (s *PaymentStore) History(ctx context.Context, subscriberID string, limit int) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, payment_method, status, payment_date, receipt_number, months_paid
		FROM payments
		WHERE subscriber_id = $1
		ORDER BY payment_date DESC
		LIMIT $2`, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Payment, 0, limit)
	for rows.Next() {
		var (
			p       models.Payment
			receipt sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Amount, &p.PaymentMethod, &p.Status, &p.PaymentDate, &receipt, &p.MonthsPaid); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.ReceiptNumber = nullString(receipt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateRequest inserts a payment request. ID, timestamps and status are set by the caller.
func (s *PaymentStore) CreateRequest(ctx context.Context, pr *models.PaymentRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_requests (id, subscriber_id, amount, months, payment_method, phone_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		pr.ID, pr.SubscriberID, pr.Amount, pr.Months, pr.PaymentMethod, pr.PhoneNumber, pr.Status, pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment request: %w", err)
	}
	return nil
}

// UpdateRequestStatus moves a request to status, recording the rail reference when known.
func (s *PaymentStore) UpdateRequestStatus(ctx context.Context, id string, status models.PaymentRequestStatus, externalRef *string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payment_requests
		SET status = $2, external_ref = COALESCE($3, external_ref), updated_at = $4
		WHERE id = $1`, id, status, toNullString(externalRef), at)
	if err != nil {
		return fmt.Errorf("update payment request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRequest returns a request only if it belongs to subscriberID.
func (s *PaymentStore) GetRequest(ctx context.Context, id, subscriberID string) (*models.PaymentRequest, error) {
	var (
		pr  models.PaymentRequest
		ref sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subscriber_id, amount, months, payment_method, phone_number, status, external_ref, created_at, updated_at
		FROM payment_requests
		WHERE id = $1 AND subscriber_id = $2`, id, subscriberID).Scan(
		&pr.ID, &pr.SubscriberID, &pr.Amount, &pr.Months, &pr.PaymentMethod, &pr.PhoneNumber,
		&pr.Status, &ref, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get payment request: %w", notFound(err))
	}
	pr.ExternalRef = nullString(ref)
	return &pr, nil
}
