package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a rating + comment, unique per (product, user) pair. Each write
// drives the product's rolling rating aggregate.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Validate enforces the review schema constraints.
func (r *Review) Validate() error {
	if r.Rating == 0 {
		return NewValidationError("Rating is required.")
	}
	if err := ValidateRating(r.Rating); err != nil {
		return err
	}
	if err := ValidateComment(r.Comment); err != nil {
		return err
	}
	if r.Product.IsZero() {
		return NewValidationError("Review must belong to product.")
	}
	if r.User.IsZero() {
		return NewValidationError("Review must belong to user.")
	}
	return nil
}

// ValidateRating checks the 1..5 rating bounds.
func ValidateRating(rating int) error {
	if rating < 1 {
		return NewValidationError("Rating must be at least 1.")
	}
	if rating > 5 {
		return NewValidationError("Rating cannot exceed 5.")
	}
	return nil
}

// ValidateComment checks the comment constraints.
func ValidateComment(comment string) error {
	if comment == "" {
		return NewValidationError("Comment is required.")
	}
	if len(comment) < 4 {
		return NewValidationError("Comment must be at least 4 characters.")
	}
	return nil
}
