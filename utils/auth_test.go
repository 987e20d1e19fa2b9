package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"vendix/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                "development",
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := SignAccessToken("johndoe", "vendor", cfg)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAccessToken(token, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "johndoe" || claims.Role != "vendor" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := testConfig()
	token, err := SignAccessToken("johndoe", "user", cfg)
	if err != nil {
		t.Fatal(err)
	}

	other := testConfig()
	other.AccessTokenSecret = "another-secret"
	if _, err := ParseAccessToken(token, other); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}

func TestExpiredAccessToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute

	token, err := SignAccessToken("johndoe", "user", cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseAccessToken(token, cfg)
	if err == nil {
		t.Fatal("expired token should be rejected")
	}
	var jwtErr *jwt.ValidationError
	if !errors.As(err, &jwtErr) || jwtErr.Errors&jwt.ValidationErrorExpired == 0 {
		t.Errorf("expected an expiry validation error, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := SignRefreshToken("64f1c0ffee0000000000aaaa", cfg)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseRefreshToken(token, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "64f1c0ffee0000000000aaaa" {
		t.Errorf("user id = %q", claims.UserID)
	}

	// The two token families must not be interchangeable.
	if _, err := ParseAccessToken(token, cfg); err == nil {
		t.Error("refresh token accepted as an access token")
	}
}
