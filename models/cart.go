package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one (product, quantity) line in a cart.
type CartItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Cart holds a user's pending purchase. Total, TotalProducts and
// TotalQuantity are derived and recomputed after every mutation.
type Cart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Products      []CartItem         `bson:"products" json:"products"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Total         float64            `bson:"total" json:"total"`
	TotalProducts int                `bson:"total_products" json:"totalProducts"`
	TotalQuantity int                `bson:"total_quantity" json:"totalQuantity"`
}

// CartTotals computes the derived cart fields from the current lines at
// current effective prices. Lines whose product is missing from the lookup
// are skipped.
func CartTotals(items []CartItem, products map[primitive.ObjectID]*Product, now time.Time) (total float64, totalProducts, totalQuantity int) {
	for _, item := range items {
		product, ok := products[item.Product]
		if !ok {
			continue
		}
		total += float64(item.Quantity) * product.EffectivePrice(now)
		totalProducts++
		totalQuantity += item.Quantity
	}
	return Round2(total), totalProducts, totalQuantity
}

// InsufficientStock returns the names of every product whose cart quantity
// exceeds its current stock, so checkout can report all violations at once.
func InsufficientStock(items []CartItem, products map[primitive.ObjectID]*Product) []string {
	var names []string
	for _, item := range items {
		product, ok := products[item.Product]
		if !ok {
			names = append(names, item.Product.Hex())
			continue
		}
		if product.StockQuantity < item.Quantity {
			names = append(names, product.Name)
		}
	}
	return names
}

// InsufficientStockError formats the checkout rejection message for the
// given product names.
func InsufficientStockError(names []string) error {
	return NewValidationError(fmt.Sprintf(
		"The following products have insufficient stock: %s. Please adjust your cart.",
		strings.Join(names, ", "),
	))
}
