package models

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleUser     = "user"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

// User lifecycle statuses.
const (
	StatusActive               = "active"
	StatusInactive             = "inactive"
	StatusAwaitingVerification = "awaitingVerification"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// Address is an embedded delivery address.
type Address struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Country string             `bson:"country" json:"country"`
	City    string             `bson:"city" json:"city"`
	State   string             `bson:"state" json:"state"`
	Street  string             `bson:"street" json:"street"`
}

// Validate checks that every address field is present.
func (a *Address) Validate() error {
	switch {
	case a.Country == "":
		return NewValidationError("Country is required.")
	case a.City == "":
		return NewValidationError("City is required.")
	case a.State == "":
		return NewValidationError("State is required.")
	case a.Street == "":
		return NewValidationError("Street is required.")
	}
	return nil
}

// FullName holds the user's first and last name.
type FullName struct {
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
}

// User represents an account in the system.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	FullName       FullName           `bson:"full_name" json:"fullName"`
	ProfilePicture string             `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	Role           string             `bson:"role" json:"role"`
	Status         string             `bson:"status" json:"status"`
	Addresses      []Address          `bson:"addresses" json:"addresses"`

	// A pending email change is staged here until the new address is verified.
	TempEmail string `bson:"temp_email,omitempty" json:"-"`

	VerificationCode        string    `bson:"verification_code,omitempty" json:"-"`
	VerificationCodeExpires time.Time `bson:"verification_code_expires,omitempty" json:"-"`

	Password             string    `bson:"password" json:"-"`
	PasswordChangedAt    time.Time `bson:"password_changed_at,omitempty" json:"-"`
	PasswordResetToken   string    `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires time.Time `bson:"password_reset_expires,omitempty" json:"-"`

	Wishlist primitive.ObjectID `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	Vendor   primitive.ObjectID `bson:"vendor,omitempty" json:"vendor,omitempty"`
}

// Validate enforces the user schema constraints. The password is validated
// separately, before hashing.
func (u *User) Validate() error {
	if u.Username == "" {
		return NewValidationError("Username is required.")
	}
	if len(u.Username) < 3 {
		return NewValidationError("Username must be at least 3 characters.")
	}
	if u.Email == "" {
		return NewValidationError("Email is required.")
	}
	if !ValidEmail(u.Email) {
		return NewValidationError("Please provide a valid email address.")
	}
	if u.FullName.FirstName == "" {
		return NewValidationError("First name is required.")
	}
	if u.FullName.LastName == "" {
		return NewValidationError("Last name is required.")
	}
	if !ValidRole(u.Role) {
		return NewValidationError("Role is either: user, vendor, delivery, admin.")
	}
	if !ValidStatus(u.Status) {
		return NewValidationError("Status is either: active, inactive, awaitingVerification.")
	}
	for i := range u.Addresses {
		if err := u.Addresses[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	switch s {
	case RoleUser, RoleVendor, RoleAdmin, RoleDelivery:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known account status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusAwaitingVerification:
		return true
	}
	return false
}

// ValidatePassword enforces the plaintext password rules before hashing.
func ValidatePassword(password, passwordConfirm string) error {
	if password == "" {
		return NewValidationError("Password is required.")
	}
	if len(password) < 8 {
		return NewValidationError("Password must be at least 8 characters.")
	}
	if password != passwordConfirm {
		return NewValidationError("Password confirm must be same as password.")
	}
	return nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CorrectPassword compares a candidate against the stored hash.
func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password changed after the given
// token issue time (unix seconds). Tokens issued earlier are stale.
func (u *User) ChangedPasswordAfter(issuedAt int64) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return issuedAt < u.PasswordChangedAt.Unix()
}

// NewValidationError builds the 400 error used for schema violations.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError marks a schema constraint violation. The HTTP layer renders
// it as a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StatusCode implements the operational-error contract.
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// NormalizeUsername lowercases a username the way the schema stores it.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail lowercases an email address the way the schema stores it.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
