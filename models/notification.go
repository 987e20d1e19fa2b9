package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Notification is a per-user message created by domain flows (order placed,
// order delivered, vendor request handled).
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Message   string             `bson:"message" json:"message"`
	IsRead    bool               `bson:"is_read" json:"isRead"`
	Priority  string             `bson:"priority" json:"priority"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Product   primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	Order     primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Validate enforces the notification schema constraints.
func (n *Notification) Validate() error {
	if n.Message == "" {
		return NewValidationError("Message is required.")
	}
	switch n.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return NewValidationError("priority is either: high, medium, low.")
	}
	if n.User.IsZero() {
		return NewValidationError("Notification must belong to user.")
	}
	return nil
}
