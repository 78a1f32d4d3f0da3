package models

import "time"

type PaymentMethod string

const (
	PaymentMTNMoMo     PaymentMethod = "mtn_momo"
	PaymentOrangeMoney PaymentMethod = "orange_money"
	PaymentCash        PaymentMethod = "cash"
)

// IsMobileMoney reports whether subscribers may initiate this method themselves.
func (m PaymentMethod) IsMobileMoney() bool {
	return m == PaymentMTNMoMo || m == PaymentOrangeMoney
}

// Payment is a settled entry of the billing history, recorded by staff.
type Payment struct {
	ID            string        `json:"id"`
	Amount        int64         `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        string        `json:"status"`
	PaymentDate   time.Time     `json:"payment_date"`
	ReceiptNumber *string       `json:"receipt_number"`
	MonthsPaid    int           `json:"months_paid"`
}

type PaymentRequestStatus string

const (
	PaymentRequestPending    PaymentRequestStatus = "pending"
	PaymentRequestProcessing PaymentRequestStatus = "processing"
	PaymentRequestCompleted  PaymentRequestStatus = "completed"
	PaymentRequestFailed     PaymentRequestStatus = "failed"
)

// PaymentRequest is a subscriber-initiated mobile-money payment.
// Status moves pending -> processing here; terminal states are set by settlement.
type PaymentRequest struct {
	ID            string               `json:"id"`
	SubscriberID  string               `json:"subscriber_id"`
	Amount        int64                `json:"amount"`
	Months        int                  `json:"months"`
	PaymentMethod PaymentMethod        `json:"payment_method"`
	PhoneNumber   string               `json:"phone_number"`
	Status        PaymentRequestStatus `json:"status"`
	ExternalRef   *string              `json:"external_ref,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// PaymentEvent is published whenever a payment request changes status.
type PaymentEvent struct {
	PaymentID    string               `json:"paymentId"`
	SubscriberID string               `json:"subscriberId"`
	Status       PaymentRequestStatus `json:"status"`
	Amount       int64                `json:"amount"`
	At           time.Time            `json:"at"`
}
