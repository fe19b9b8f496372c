// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Authentication errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrProviderFailed    = errors.New("identity provider sign-in failed")
	ErrNotLoggedIn       = errors.New("not logged in")

	// Submission errors.
	ErrMissingInput       = errors.New("missing input")
	ErrInvalidField       = errors.New("invalid field value")
	ErrTransport          = errors.New("prediction request failed")
	ErrSubmissionInFlight = errors.New("submission already in progress")

	// Storage errors.
	ErrPersistence = errors.New("history persistence failed")
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate entry")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RegistrationError is returned when the identity provider rejects a new
// account. Detail is the provider's explanation.
type RegistrationError struct {
	Err    error
	Detail string
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Detail
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the user-facing text carried by err, falling back to
// fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var userErr *UserError
	if errors.As(err, &userErr) && userErr.UserMessage != "" {
		return userErr.UserMessage
	}
	return fallback
}
