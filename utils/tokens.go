package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenTTL is how long emailed verification codes and reset tokens stay
// valid.
const TokenTTL = 10 * time.Minute

// GenerateSecureToken returns a random token and its sha-256 hash. The plain
// value is emailed to the user; only the hash is stored.
func GenerateSecureToken() (plain, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// HashToken returns the hex-encoded sha-256 digest of a token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
