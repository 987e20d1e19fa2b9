package utils

import (
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// environment controls error rendering (development adds the raw error).
// Set once at startup.
var environment = "development"

// SetEnvironment configures error rendering for the process.
func SetEnvironment(env string) {
	environment = env
}

// AppError is an anticipated, user-facing failure. Its message is rendered
// directly to the caller.
type AppError struct {
	Code    int
	Message string
}

// NewAppError builds an operational error with the given HTTP status.
func NewAppError(message string, code int) *AppError {
	return &AppError{Code: code, Message: message}
}

func (e *AppError) Error() string { return e.Message }

// StatusCode implements the operational-error contract.
func (e *AppError) StatusCode() int { return e.Code }

// operational is satisfied by every anticipated error type (AppError,
// models.ValidationError, models.ForbiddenError).
type operational interface {
	error
	StatusCode() int
}

var dupValueRe = regexp.MustCompile(`"([^"]*)"`)

// ClassifyError maps an arbitrary error onto the response taxonomy and
// reports whether it was operational.
func ClassifyError(err error, hasRefreshCookie bool) (code int, message string, ok bool) {
	var opErr operational
	if errors.As(err, &opErr) {
		return opErr.StatusCode(), opErr.Error(), true
	}

	if errors.Is(err, primitive.ErrInvalidHex) {
		return http.StatusBadRequest, "Invalid id provided.", true
	}

	if mongo.IsDuplicateKeyError(err) {
		value := dupValueRe.FindString(err.Error())
		if value == "" {
			value = `""`
		}
		return http.StatusBadRequest, "Duplicate value " + value + ". Please use another value.", true
	}

	var jwtErr *jwt.ValidationError
	if errors.As(err, &jwtErr) {
		if jwtErr.Errors&jwt.ValidationErrorExpired != 0 {
			if hasRefreshCookie {
				return http.StatusUnauthorized,
					"Your token has expired. Please refresh your token to get a new access token.", true
			}
			return http.StatusUnauthorized, "Your token has expired. Please log in again.", true
		}
		return http.StatusUnauthorized, "Invalid access token. Please log in again.", true
	}

	return http.StatusInternalServerError, "Something went very wrong!", false
}

// HandleError renders an error response. Operational errors surface their
// message; anything unexpected is logged and hidden behind a generic 500 in
// production.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	_, hasCookie := refreshCookie(r)
	code, message, operational := ClassifyError(err, hasCookie)

	if !operational {
		log.Printf("ERROR %s %s: %v", r.Method, r.URL.Path, err)
	}

	env := Envelope{Status: StatusError, Message: message}
	if environment == "development" {
		env.Error = err.Error()
	}
	SendJSON(w, code, env)
}

func refreshCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie("jwt")
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}
