package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"vendix/models"
)

func requestAs(role string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if role == "" {
		return r
	}
	user := &models.User{Role: role}
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireRoles(t *testing.T) {
	h := RequireRoles(okHandler, models.RoleAdmin, models.RoleDelivery)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(models.RoleDelivery))
	if rec.Code != http.StatusOK {
		t.Errorf("expected allowed role to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(models.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected disallowed role to get 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected missing user to get 401, got %d", rec.Code)
	}
}

func TestRestrictTo(t *testing.T) {
	h := RestrictTo(models.RoleVendor)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(models.RoleVendor))
	if rec.Code != http.StatusOK {
		t.Errorf("expected vendor to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(models.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected non-vendor to get 403, got %d", rec.Code)
	}
}

func TestCurrentUserWithoutAuth(t *testing.T) {
	if user := CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil)); user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}
