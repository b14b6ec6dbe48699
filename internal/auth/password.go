package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// bcrypt silently ignores input past 72 bytes.
	maxPasswordBytes = 72
	bcryptCost       = 10
)

var ErrWeakPassword = errors.New("unacceptable password")

// HashPassword rejects passwords outside MinPasswordLength..72 bytes with
// ErrWeakPassword.
func HashPassword(password string) (string, error) {
	switch {
	case len(password) < MinPasswordLength:
		return "", fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, ErrWeakPassword)
	case len(password) > maxPasswordBytes:
		return "", fmt.Errorf("password must be at most %d bytes: %w", maxPasswordBytes, ErrWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword is false for accounts without a stored hash.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
