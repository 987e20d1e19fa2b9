package utils

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"

	"vendix/config"
)

// AccessClaims is carried by the short-lived bearer token.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

// RefreshClaims is carried by the long-lived refresh token stored in the
// http-only "jwt" cookie.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.StandardClaims
}

// SignAccessToken issues a bearer token carrying the user's name and role.
func SignAccessToken(username, role string, cfg *config.Config) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(cfg.AccessTokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessTokenSecret))
}

// SignRefreshToken issues the refresh token for a user id.
func SignRefreshToken(userID string, cfg *config.Config) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(cfg.RefreshTokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.RefreshTokenSecret))
}

// ParseAccessToken verifies a bearer token and returns its claims.
func ParseAccessToken(token string, cfg *config.Config) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, NewAppError("Invalid access token. Please log in again.", http.StatusUnauthorized)
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func ParseRefreshToken(token string, cfg *config.Config) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.RefreshTokenSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, NewAppError("Session expired or invalid. Please log in to continue.", http.StatusUnauthorized)
	}
	return claims, nil
}

// SetRefreshCookie stores the refresh token in the http-only "jwt" cookie.
func SetRefreshCookie(w http.ResponseWriter, token string, cfg *config.Config) {
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: sameSite,
		MaxAge:   int(cfg.RefreshCookieExpiresIn.Seconds()),
	})
}

// ClearRefreshCookie expires the refresh cookie.
func ClearRefreshCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		MaxAge:   -1,
	})
}
