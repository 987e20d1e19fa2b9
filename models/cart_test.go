package models

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCartTotals(t *testing.T) {
	now := time.Now()
	idA, idB := primitive.NewObjectID(), primitive.NewObjectID()

	products := map[primitive.ObjectID]*Product{
		idA: {ID: idA, Price: 100, StockQuantity: 10,
			Discount: &Discount{Amount: 20, ExpiryDate: now.Add(24 * time.Hour)}},
		idB: {ID: idB, Price: 50, StockQuantity: 10},
	}
	items := []CartItem{
		{Product: idA, Quantity: 2},
		{Product: idB, Quantity: 1},
	}

	total, totalProducts, totalQuantity := CartTotals(items, products, now)
	if total != 210 {
		t.Errorf("total = %v, want 210", total)
	}
	if totalProducts != 2 {
		t.Errorf("totalProducts = %d, want 2", totalProducts)
	}
	if totalQuantity != 3 {
		t.Errorf("totalQuantity = %d, want 3", totalQuantity)
	}
}

func TestCartTotalsSkipsMissingProducts(t *testing.T) {
	now := time.Now()
	idA := primitive.NewObjectID()
	products := map[primitive.ObjectID]*Product{
		idA: {ID: idA, Price: 10},
	}
	items := []CartItem{
		{Product: idA, Quantity: 1},
		{Product: primitive.NewObjectID(), Quantity: 3},
	}

	total, totalProducts, totalQuantity := CartTotals(items, products, now)
	if total != 10 || totalProducts != 1 || totalQuantity != 1 {
		t.Fatalf("got total=%v products=%d quantity=%d, want 10/1/1",
			total, totalProducts, totalQuantity)
	}
}

func TestInsufficientStock(t *testing.T) {
	idA, idB, idC := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	products := map[primitive.ObjectID]*Product{
		idA: {ID: idA, Name: "Widget", StockQuantity: 1},
		idB: {ID: idB, Name: "Gadget", StockQuantity: 5},
	}
	items := []CartItem{
		{Product: idA, Quantity: 2},
		{Product: idB, Quantity: 5},
		{Product: idC, Quantity: 1},
	}

	short := InsufficientStock(items, products)
	if len(short) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(short), short)
	}
	if short[0] != "Widget" {
		t.Errorf("first violation = %q, want Widget", short[0])
	}
	if short[1] != idC.Hex() {
		t.Errorf("missing product reported as %q, want its hex id", short[1])
	}

	err := InsufficientStockError(short)
	if !strings.Contains(err.Error(), "Widget") {
		t.Errorf("error message %q should name every product", err.Error())
	}
	opErr, ok := err.(interface{ StatusCode() int })
	if !ok || opErr.StatusCode() != 400 {
		t.Errorf("insufficient stock should be a 400, got %v", err)
	}
}
