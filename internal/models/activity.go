package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityOutcome string

const (
	OutcomeSuccess ActivityOutcome = "success"
	OutcomeFailure ActivityOutcome = "failure"
)

// Activity is one entry of the portal activity trail, stored in MongoDB.
// Phone is kept normalized so staff can look a subscriber up by number.
type Activity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action       string             `bson:"action" json:"action"`
	Outcome      ActivityOutcome    `bson:"outcome" json:"outcome"`
	Reason       string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	SubscriberID string             `bson:"subscriber_id,omitempty" json:"subscriber_id,omitempty"`
	Reference    string             `bson:"reference,omitempty" json:"reference,omitempty"`
	ClientIP     string             `bson:"client_ip,omitempty" json:"client_ip,omitempty"`
	UserAgent    string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
