// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// NewUserID returns a fresh collision-resistant identifier, assigned once per
// connection lifetime.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// ValidateUsername bounds display names by rune count, so multibyte names
// get the same 36 characters as ASCII ones.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrUsernameEmpty
	}
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
