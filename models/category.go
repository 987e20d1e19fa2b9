package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a unique, slugified product grouping.
type Category struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name  string             `bson:"name" json:"name"`
	Image string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Validate enforces the category schema constraints.
func (c *Category) Validate() error {
	if c.Name == "" {
		return NewValidationError("Name of category is required.")
	}
	if len(c.Name) < 4 {
		return NewValidationError("Category name must be at least 4 characters.")
	}
	if len(c.Name) > 20 {
		return NewValidationError("Category name cannot exceed 20 characters.")
	}
	return nil
}
