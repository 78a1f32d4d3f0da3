package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// Subscriber is the row the auth core works with. Phone is the normalized
// international form and never changes once the record exists.
type Subscriber struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	PINHash     *string    `json:"-"`
	PINSetAt    *time.Time `json:"pin_set_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	ZoneID      *string    `json:"zone_id,omitempty"`
	BouquetID   *string    `json:"bouquet_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasPIN reports whether the subscriber has completed enrollment.
func (s *Subscriber) HasPIN() bool {
	return s.PINHash != nil && *s.PINHash != ""
}

// Profile is what a subscriber sees about themselves.
type Profile struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	Phone                 string             `json:"phone"`
	PhoneSecondary        *string            `json:"phone_secondary"`
	Email                 *string            `json:"email"`
	Address               string             `json:"address"`
	LineNumber            *string            `json:"line_number"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status"`
	SubscriptionExpiresAt *time.Time         `json:"subscription_expires_at"`
	SignalActive          bool               `json:"signal_active"`
	Zone                  *ZoneSummary       `json:"zone"`
	Bouquet               *BouquetSummary    `json:"bouquet"`
}

// BillingInfo is the slice of a subscriber needed to price a payment.
type BillingInfo struct {
	SubscriberID string
	BouquetID    *string
	// Price is the current bouquet's monthly price, 0 when no bouquet is assigned.
	Price int64
}
