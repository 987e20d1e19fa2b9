package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestPluralize(t *testing.T) {
	cases := map[string]string{
		"product":  "products",
		"category": "categories",
		"order":    "orders",
		"review":   "reviews",
	}
	for in, want := range cases {
		if got := Pluralize(in); got != want {
			t.Errorf("Pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSendList(t *testing.T) {
	w := httptest.NewRecorder()
	SendList(w, "products", []string{"a", "b"}, 2, 42)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "success" {
		t.Errorf("status = %v", body["status"])
	}
	if body["result"] != float64(2) || body["total"] != float64(42) {
		t.Errorf("result/total = %v/%v", body["result"], body["total"])
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data: %v", body)
	}
	if _, ok := data["products"]; !ok {
		t.Errorf("data should be keyed by the plural name: %v", data)
	}
}

func TestFilterFields(t *testing.T) {
	body := map[string]interface{}{
		"name":  "x",
		"role":  "admin",
		"price": 3,
	}
	filtered := FilterFields(body, "name", "price")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 fields, got %v", filtered)
	}
	if _, ok := filtered["role"]; ok {
		t.Error("disallowed field survived filtering")
	}
}
