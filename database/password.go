package database

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether stored looks like a bcrypt hash
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// PasswordMatches checks given against a stored password. Stored values are
// only read as bcrypt hashes when hashing is on; a value that merely looks
// like a hash but does not parse as one is compared in the clear.
func PasswordMatches(stored, given string, hashing bool) bool {
	if hashing && IsHashed(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(given))
		if err == nil {
			return true
		}
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false
		}
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
