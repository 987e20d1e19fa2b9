package models

import (
	"testing"
	"time"
)

func validUser() *User {
	return &User{
		Username: "johndoe",
		Email:    "john@example.com",
		FullName: FullName{FirstName: "John", LastName: "Doe"},
		Role:     RoleUser,
		Status:   StatusAwaitingVerification,
	}
}

func TestUserValidate(t *testing.T) {
	if err := validUser().Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	u := validUser()
	u.Username = "ab"
	if err := u.Validate(); err == nil {
		t.Error("expected short username to be rejected")
	}

	u = validUser()
	u.Email = "not-an-email"
	if err := u.Validate(); err == nil {
		t.Error("expected invalid email to be rejected")
	}

	u = validUser()
	u.Role = "superuser"
	if err := u.Validate(); err == nil {
		t.Error("expected unknown role to be rejected")
	}

	u = validUser()
	u.FullName.LastName = ""
	if err := u.Validate(); err == nil {
		t.Error("expected missing last name to be rejected")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough", "longenough"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := ValidatePassword("short", "short"); err == nil {
		t.Error("expected short password to be rejected")
	}
	if err := ValidatePassword("longenough", "different!"); err == nil {
		t.Error("expected mismatched confirmation to be rejected")
	}
}

func TestCorrectPassword(t *testing.T) {
	hashed, err := HashPassword("longenough")
	if err != nil {
		t.Fatal(err)
	}
	u := &User{Password: hashed}
	if !u.CorrectPassword("longenough") {
		t.Error("correct password rejected")
	}
	if u.CorrectPassword("wrongwrong") {
		t.Error("wrong password accepted")
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	now := time.Now()

	u := &User{}
	if u.ChangedPasswordAfter(now.Unix()) {
		t.Error("user who never changed the password should not invalidate tokens")
	}

	u.PasswordChangedAt = now
	if !u.ChangedPasswordAfter(now.Add(-time.Hour).Unix()) {
		t.Error("token issued before the change should be invalidated")
	}
	if u.ChangedPasswordAfter(now.Add(time.Hour).Unix()) {
		t.Error("token issued after the change should stay valid")
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeUsername("  JohnDoe "); got != "johndoe" {
		t.Errorf("NormalizeUsername = %q", got)
	}
	if got := NormalizeEmail(" John@Example.COM "); got != "john@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
