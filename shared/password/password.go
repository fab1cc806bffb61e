package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor applied to every stored credential.
const DefaultCost = bcrypt.DefaultCost

// ErrInvalidPassword is returned when a password does not match its hash.
// Callers map it to an authentication failure, never to the underlying
// bcrypt error.
var ErrInvalidPassword = errors.New("invalid password")

// Hash derives a salted bcrypt hash from a plaintext password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(bytes), nil
}

// Verify compares a plaintext password against a stored hash.
func Verify(password, hash string) error {
	if password == "" || hash == "" {
		return ErrInvalidPassword
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}

		return fmt.Errorf("failed to verify password: %w", err)
	}

	return nil
}
