package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailTaken is returned when registering or changing to an email already in use.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for an unknown email, a wrong password or an inactive user.
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	// ErrInvalidToken is returned when a bearer token cannot be resolved to an active user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotFound is returned when the requested record does not exist for the requester.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
