package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateUserPointsAtSignup(t *testing.T) {
	uc := &UserController{}

	rec := httptest.NewRecorder()
	uc.CreateUser(rec, httptest.NewRequest(http.MethodPost, "/api/users", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("expected a JSON body, got %q", rec.Body.String())
	}
	if env.Status != "error" {
		t.Errorf("expected status error, got %q", env.Status)
	}
	if !strings.Contains(env.Message, "/signup") {
		t.Errorf("expected the message to point at /signup, got %q", env.Message)
	}
}
