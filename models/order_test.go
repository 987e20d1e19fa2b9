package models

import (
	"strings"
	"testing"
)

func TestCheckStatusTransition(t *testing.T) {
	for _, status := range []string{OrderPending, OrderShipped} {
		if err := CheckStatusTransition(status); err != nil {
			t.Errorf("%s order should accept updates, got %v", status, err)
		}
	}
	for _, status := range []string{OrderDelivered, OrderCancelled} {
		err := CheckStatusTransition(status)
		if err == nil {
			t.Fatalf("%s order should reject updates", status)
		}
		if !strings.Contains(err.Error(), status) {
			t.Errorf("error %q should name the terminal status", err.Error())
		}
		opErr, ok := err.(interface{ StatusCode() int })
		if !ok || opErr.StatusCode() != 403 {
			t.Errorf("terminal-state update should be a 403, got %v", err)
		}
	}
}

func TestOrderStatusEnums(t *testing.T) {
	for _, status := range []string{OrderPending, OrderShipped, OrderDelivered, OrderCancelled} {
		if !ValidOrderStatus(status) {
			t.Errorf("%s should be a valid order status", status)
		}
	}
	if ValidOrderStatus("returned") {
		t.Error("unknown order status accepted")
	}

	if !ValidPaymentStatus(PaymentPaid) || !ValidPaymentStatus(PaymentPayOnDelivery) {
		t.Error("known payment statuses rejected")
	}
	if ValidPaymentStatus("card") {
		t.Error("unknown payment status accepted")
	}
}
