package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Delivered and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentPaid          = "paid"
	PaymentPayOnDelivery = "payOnDelivery"
)

// OrderItem is an immutable product/price/quantity snapshot taken at
// checkout time.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

// Order is a placed, snapshotted purchase.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderStatus     string             `bson:"order_status" json:"orderStatus"`
	PaymentStatus   string             `bson:"payment_status" json:"paymentStatus"`
	ShippingAddress Address            `bson:"shipping_address" json:"shippingAddress"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Products        []OrderItem        `bson:"products" json:"products"`
	Total           float64            `bson:"total" json:"total"`
	ShippingFee     float64            `bson:"shipping_fee" json:"shippingFee"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Validate enforces the order schema constraints.
func (o *Order) Validate() error {
	if !ValidOrderStatus(o.OrderStatus) {
		return NewValidationError("Order status is either: pending, shipped, delivered, cancelled.")
	}
	if !ValidPaymentStatus(o.PaymentStatus) {
		return NewValidationError("Payment status is either: paid, payOnDelivery")
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if o.User.IsZero() {
		return NewValidationError("Order must belong to user.")
	}
	if len(o.Products) == 0 {
		return NewValidationError("At least one product is required.")
	}
	for _, item := range o.Products {
		if item.Product.IsZero() {
			return NewValidationError("Product is required.")
		}
		if item.Quantity < 1 {
			return NewValidationError("Quantity must be at least 1")
		}
	}
	return nil
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPaid, PaymentPayOnDelivery:
		return true
	}
	return false
}

// CheckStatusTransition rejects updates to orders that already reached a
// terminal state.
func CheckStatusTransition(current string) error {
	switch current {
	case OrderDelivered, OrderCancelled:
		return &ForbiddenError{Message: fmt.Sprintf(
			"You cannot update or delete an order that is already %s.", current)}
	}
	return nil
}

// ForbiddenError marks an authenticated but not permitted action. The HTTP
// layer renders it as a 403.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// StatusCode implements the operational-error contract.
func (e *ForbiddenError) StatusCode() int { return 403 }
