package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invoice is created when an order transitions to delivered; exactly one per
// order, enforced by the unique index on the order reference.
type Invoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	InvoiceNumber int64              `bson:"invoice_number" json:"invoiceNumber"`
	Order         primitive.ObjectID `bson:"order" json:"order"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}
