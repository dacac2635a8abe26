package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	iterations = 100_000
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives a salted PBKDF2-SHA256 key and returns
// base64(salt || key).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	return base64.StdEncoding.EncodeToString(append(salt, key...)), nil
}

// VerifyPassword recomputes the key for password and compares it in constant time.
func VerifyPassword(encoded, password string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, errMalformedHash
	}
	if len(raw) != saltSize+keySize {
		return false, errMalformedHash
	}
	salt, want := raw[:saltSize], raw[saltSize:]
	got := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
