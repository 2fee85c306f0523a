package loan

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("loan not found")
	ErrForbidden          = errors.New("loan is managed by another owner")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrObligationNotFound = errors.New("obligation not found")
)

// ValidationError reports a single invalid or missing field on one record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }
