package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when no valid credential is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials never says which part of the login was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes input that breaks a business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
