package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wishlist is a per-user set of product references.
type Wishlist struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Products  []primitive.ObjectID `bson:"products" json:"products"`
	User      primitive.ObjectID   `bson:"user" json:"user"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Contains reports whether the wishlist already references the product.
func (w *Wishlist) Contains(product primitive.ObjectID) bool {
	for _, p := range w.Products {
		if p == product {
			return true
		}
	}
	return false
}
