package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validProduct() *Product {
	return &Product{
		Name:                "Mechanical Keyboard",
		Description:         "A tenkeyless mechanical keyboard with hot-swappable switches.",
		Price:               100,
		StockQuantity:       5,
		Images:              []string{"keyboard.png"},
		Vendor:              primitive.NewObjectID(),
		Category:            primitive.NewObjectID(),
		ShippingInformation: "Ships within 3 business days.",
		WarrantyInformation: "Two year limited warranty.",
	}
}

func TestEffectivePrice(t *testing.T) {
	now := time.Now()
	tomorrow := now.Add(24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	p := validProduct()
	if got := p.EffectivePrice(now); got != 100 {
		t.Fatalf("expected 100 without discount, got %v", got)
	}

	p.Discount = &Discount{Amount: 20, ExpiryDate: tomorrow}
	if got := p.EffectivePrice(now); got != 80 {
		t.Fatalf("expected 80 with active discount, got %v", got)
	}

	p.Discount = &Discount{Amount: 20, ExpiryDate: yesterday}
	if got := p.EffectivePrice(now); got != 100 {
		t.Fatalf("expected 100 with expired discount, got %v", got)
	}

	p.Discount = &Discount{Amount: 0, ExpiryDate: tomorrow}
	if got := p.EffectivePrice(now); got != 100 {
		t.Fatalf("expected 100 with zero discount, got %v", got)
	}
}

func TestProductValidate(t *testing.T) {
	if err := validProduct().Validate(); err != nil {
		t.Fatalf("valid product rejected: %v", err)
	}

	p := validProduct()
	p.Name = "abc"
	if err := p.Validate(); err == nil {
		t.Error("expected short name to be rejected")
	}

	p = validProduct()
	p.Description = "too short"
	if err := p.Validate(); err == nil {
		t.Error("expected short description to be rejected")
	}

	p = validProduct()
	p.Discount = &Discount{Amount: 100, ExpiryDate: time.Now().Add(time.Hour)}
	if err := p.Validate(); err == nil {
		t.Error("expected discount equal to price to be rejected")
	}

	p = validProduct()
	p.Vendor = primitive.NilObjectID
	if err := p.Validate(); err == nil {
		t.Error("expected missing vendor to be rejected")
	}

	p = validProduct()
	p.ShippingInformation = ""
	if err := p.Validate(); err == nil {
		t.Error("expected missing shipping information to be rejected")
	}

	p = validProduct()
	p.WarrantyInformation = ""
	if err := p.Validate(); err == nil {
		t.Error("expected missing warranty information to be rejected")
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		10.006:  10.01,
		10.004:  10.0,
		209.999: 210.0,
		0:       0,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}
