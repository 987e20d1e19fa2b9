package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/models"
	"vendix/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// Auth verifies bearer tokens and attaches the current user to the request
// context.
type Auth struct {
	users *mongo.Collection
	cfg   *config.Config
}

// NewAuth builds the auth middleware against the users collection.
func NewAuth(db *mongo.Database, cfg *config.Config) *Auth {
	return &Auth{users: db.Collection(models.UsersCollection), cfg: cfg}
}

// Protect rejects requests without a valid access token, a still-existing
// user, an unchanged password since issue, and an active account.
func (a *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.HandleError(w, r, utils.NewAppError(
				"You are not logged in! Please log in to get access.", http.StatusUnauthorized))
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimPrefix(authHeader, "Bearer "), a.cfg)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = a.users.FindOne(ctx, bson.M{"username": claims.Username}).Decode(&user)
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.HandleError(w, r, utils.NewAppError(
				"The user belonging to this token is no longer exist.", http.StatusUnauthorized))
			return
		}
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		if user.ChangedPasswordAfter(claims.IssuedAt) {
			utils.HandleError(w, r, utils.NewAppError(
				"User recently changed password! Please log in again.", http.StatusUnauthorized))
			return
		}
		if user.Status != models.StatusActive {
			utils.HandleError(w, r, utils.NewAppError(
				"Your account is not active yet!", http.StatusForbidden))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, &user)))
	})
}

// RestrictTo gates a subrouter to the given roles. Must run after Protect.
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireRoles(next.ServeHTTP, roles...)
	}
}

// RequireRoles gates a single handler to the given roles.
func RequireRoles(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			utils.HandleError(w, r, utils.NewAppError(
				"You are not logged in! Please log in to get access.", http.StatusUnauthorized))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		utils.HandleError(w, r, utils.NewAppError(
			"You do not have permission to perform this action.", http.StatusForbidden))
	}
}

// CurrentUser returns the authenticated user attached by Protect, or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user
}
