package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discount is an optional, time-bounded price reduction.
type Discount struct {
	Amount     float64   `bson:"amount" json:"amount"`
	ExpiryDate time.Time `bson:"expiry_date" json:"expiryDate"`
}

// Active reports whether the discount still applies at the given time.
func (d *Discount) Active(now time.Time) bool {
	return d != nil && d.Amount > 0 && !d.ExpiryDate.Before(now)
}

// Rating is the rolling review aggregate stored on a product or vendor.
type Rating struct {
	RatingsQuantity int     `bson:"ratings_quantity" json:"ratingsQuantity"`
	RatingsAverage  float64 `bson:"ratings_average" json:"ratingsAverage"`
}

// Product belongs to one vendor and one category.
type Product struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                string             `bson:"name" json:"name"`
	Description         string             `bson:"description" json:"description"`
	Price               float64            `bson:"price" json:"price"`
	StockQuantity       int                `bson:"stock_quantity" json:"stockQuantity"`
	Tags                []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	IsArchived          bool               `bson:"is_archived" json:"isArchived"`
	Images              []string           `bson:"images" json:"images"`
	Brand               string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Rating              Rating             `bson:"rating" json:"rating"`
	Discount            *Discount          `bson:"discount,omitempty" json:"discount,omitempty"`
	ShippingInformation string             `bson:"shipping_information" json:"shippingInformation"`
	WarrantyInformation string             `bson:"warranty_information" json:"warrantyInformation"`
	Slug                string             `bson:"slug,omitempty" json:"slug,omitempty"`
	SalesCount          int                `bson:"sales_count" json:"salesCount"`
	Vendor              primitive.ObjectID `bson:"vendor" json:"vendor"`
	Category            primitive.ObjectID `bson:"category" json:"category"`
	CreatedAt           time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Validate enforces the product schema constraints.
func (p *Product) Validate() error {
	if p.Name == "" {
		return NewValidationError("Name is required.")
	}
	if len(p.Name) < 5 {
		return NewValidationError("Name must be at least 5 characters.")
	}
	if p.Description == "" {
		return NewValidationError("Description is required.")
	}
	if len(p.Description) < 30 {
		return NewValidationError("Description must be at least 30 characters.")
	}
	if p.Price <= 0 {
		return NewValidationError("Price is required.")
	}
	if p.StockQuantity < 0 {
		return NewValidationError("Stock quantity is required.")
	}
	if len(p.Images) == 0 {
		return NewValidationError("At least one image is required.")
	}
	if p.ShippingInformation == "" {
		return NewValidationError("Shipping information is required.")
	}
	if p.WarrantyInformation == "" {
		return NewValidationError("Warranty information is required.")
	}
	if p.Vendor.IsZero() {
		return NewValidationError("Product must belong to vendor.")
	}
	if p.Category.IsZero() {
		return NewValidationError("Category is required.")
	}
	if p.Discount != nil {
		if p.Discount.Amount <= 0 {
			return NewValidationError("Discount amount is required.")
		}
		if p.Discount.ExpiryDate.IsZero() {
			return NewValidationError("Expiry date for the discount is required.")
		}
		if p.Discount.Amount >= p.Price {
			return NewValidationError("Discount amount must be less than the price.")
		}
	}
	return nil
}

// EffectivePrice is the list price minus the discount amount while the
// discount is active.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.Discount.Active(now) {
		return p.Price - p.Discount.Amount
	}
	return p.Price
}

// Round2 rounds a money amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
