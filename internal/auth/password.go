// Package auth verifies collaborator credentials against the users table.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash is returned when a stored hash is not a bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// VerifyPassword reports whether plaintext matches the salted bcrypt hash.
// A mismatch is (false, nil); an unusable hash is (false, ErrMalformedHash).
func VerifyPassword(plaintext string, hash []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}

// VerifyPasswordString is VerifyPassword for hashes stored as text cells.
func VerifyPasswordString(plaintext, hash string) (bool, error) {
	return VerifyPassword(plaintext, []byte(hash))
}

// HashPassword returns a bcrypt hash of plaintext at the default cost.
func HashPassword(plaintext string) (string, error) {
	return hashWithCost(plaintext, bcrypt.DefaultCost)
}

func hashWithCost(plaintext string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
