package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassifyOperationalError(t *testing.T) {
	code, message, ok := ClassifyError(NewAppError("No product found with that ID.", http.StatusNotFound), false)
	if !ok {
		t.Fatal("AppError should be operational")
	}
	if code != http.StatusNotFound || message != "No product found with that ID." {
		t.Errorf("got %d %q", code, message)
	}
}

func TestClassifyUnknownError(t *testing.T) {
	code, message, ok := ClassifyError(errors.New("connection reset"), false)
	if ok {
		t.Fatal("unknown errors are not operational")
	}
	if code != http.StatusInternalServerError || message != "Something went very wrong!" {
		t.Errorf("got %d %q", code, message)
	}
}

func TestClassifyDuplicateKeyError(t *testing.T) {
	err := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: vendix.users index: email_1 dup key: { email: "john@example.com" }`,
	}}}

	code, message, ok := ClassifyError(err, false)
	if !ok {
		t.Fatal("duplicate key should be operational")
	}
	if code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", code)
	}
	if !strings.Contains(message, `"john@example.com"`) {
		t.Errorf("message %q should quote the duplicate value", message)
	}
	if !strings.Contains(message, "Please use another value.") {
		t.Errorf("unexpected message %q", message)
	}
}

func TestClassifyExpiredToken(t *testing.T) {
	err := jwt.NewValidationError("token is expired", jwt.ValidationErrorExpired)

	code, message, _ := ClassifyError(err, true)
	if code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", code)
	}
	if !strings.Contains(message, "refresh") {
		t.Errorf("cookie-holding client should be told to refresh, got %q", message)
	}

	_, message, _ = ClassifyError(err, false)
	if !strings.Contains(message, "log in again") {
		t.Errorf("client without a cookie should be told to log in, got %q", message)
	}
}

func TestClassifyMalformedToken(t *testing.T) {
	err := jwt.NewValidationError("signature is invalid", jwt.ValidationErrorSignatureInvalid)
	code, message, _ := ClassifyError(err, false)
	if code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", code)
	}
	if !strings.Contains(message, "Invalid access token") {
		t.Errorf("unexpected message %q", message)
	}
}
