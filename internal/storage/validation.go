// Package storage provides the data persistence layer for the paddy application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/paddy/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid prediction record")
	ErrInvalidUser   = errors.New("invalid user")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord validates a prediction record before it is written.
func validateRecord(record *model.PredictionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if !record.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, record.Type)
	}
	if record.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	if record.Type == model.PredictionImage && record.Data != nil {
		return fmt.Errorf("%w: image predictions carry no tabular data", ErrInvalidRecord)
	}
	return nil
}

// validateUser validates a local account before it is written.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidUser)
	}
	if !strings.Contains(user.Email, "@") {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidUser, user.Email)
	}
	if strings.TrimSpace(user.Provider) == "" {
		return fmt.Errorf("%w: missing provider", ErrInvalidUser)
	}
	return nil
}
