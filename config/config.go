package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting. It is built once in main
// and passed down to the pieces that need it.
type Config struct {
	Port string
	Env  string // "development" or "production"

	MongoURI string
	DBName   string

	AccessTokenSecret      string
	AccessTokenTTL         time.Duration
	RefreshTokenSecret     string
	RefreshTokenTTL        time.Duration
	RefreshCookieExpiresIn time.Duration

	EmailFrom        string
	EmailFromName    string
	PostmarkToken    string
	SendgridAPIKey   string
	BaseURL          string
	UploadDir        string
	AllowedOrigins   []string
	RequestBodyLimit int64
}

// Load reads .env (if present) and builds the configuration.
func Load() *Config {
	// A missing .env file is fine; the variables may come from the
	// environment itself.
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "3000"),
		Env:  getEnv("NODE_ENV", "development"),

		MongoURI: getEnv("DATABASE_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DATABASE_NAME", "vendix"),

		AccessTokenSecret:      getEnv("ACCESS_TOKEN_SECRET", ""),
		AccessTokenTTL:         getEnvDuration("ACCESS_TOKEN_EXPIRES_IN", 15*time.Minute),
		RefreshTokenSecret:     getEnv("REFRESH_TOKEN_SECRET", ""),
		RefreshTokenTTL:        getEnvDuration("REFRESH_TOKEN_EXPIRES_IN", 7*24*time.Hour),
		RefreshCookieExpiresIn: time.Duration(getEnvInt("REFRESH_TOKEN_COOKIE_EXPIRES_IN", 7)) * 24 * time.Hour,

		EmailFrom:        getEnv("EMAIL_FROM", "noreply@vendix.io"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Vendix"),
		PostmarkToken:    getEnv("POSTMARK_API_TOKEN", ""),
		SendgridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		RequestBodyLimit: int64(getEnvInt("REQUEST_BODY_LIMIT", 20<<10)),
	}
}

// IsProduction reports whether the app runs with the production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
