package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errRefreshTokenRequired = errors.New("refresh token required")

// PasswordHasher hashes and compares passwords with bcrypt.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost. Out of range
// costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("vidtube-dummy-password"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash returns the bcrypt hash of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether plaintext matches hash. An empty hash is compared
// against a dummy so a missing account costs the same as a wrong password.
func (h *PasswordHasher) Compare(hash, plaintext string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashRefreshToken returns the hex SHA-256 digest stored in place of a refresh token.
func HashRefreshToken(token string) (string, error) {
	if token == "" {
		return "", errRefreshTokenRequired
	}
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:]), nil
}

// RefreshTokenMatches compares a presented token against a stored digest in constant time.
func RefreshTokenMatches(stored *string, presented string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	digest, err := HashRefreshToken(presented)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(digest)) == 1
}
