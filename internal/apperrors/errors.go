// Package apperrors defines the error taxonomy of the payments terminal.
// Every failure in this service resolves to a user-visible message and a
// stable, re-enterable session state; nothing here is fatal.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing session or resource.
	ErrNotFound = errors.New("not found")

	// ErrPaymentInFlight signals that a payment submission is already
	// running for the session. Only one may be in flight at a time.
	ErrPaymentInFlight = errors.New("a payment is already being processed")
)

// ValidationError is a local, pre-network failure surfaced immediately
// without a round trip to the POS core.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfirmationRequiredError blocks an action until the operator
// explicitly confirms it, e.g. submitting a split with unassigned items.
type ConfirmationRequiredError struct {
	Message         string
	UnassignedItems int
}

func (e *ConfirmationRequiredError) Error() string {
	return e.Message
}

// RemoteError carries the POS core's user-facing message ("mensaje")
// together with the HTTP status it answered with.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("pos core returned status %d", e.StatusCode)
}

// ConnectivityError wraps a transport failure: the request never reached
// the POS core. Callers surface a generic connectivity message.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "could not reach the POS service"
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}
