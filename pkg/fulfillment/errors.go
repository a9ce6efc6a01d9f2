package fulfillment

import (
	"errors"
	"fmt"
)

// ProviderError represents an error from a fulfillment provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Provider, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ProviderError.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// WithCause adds a cause to the error.
func (e *ProviderError) WithCause(err error) *ProviderError {
	e.Cause = err
	return e
}

// Sentinel errors for provider operations.
var (
	// ErrNotImplemented indicates an operation the provider deliberately
	// does not support. Reaching it signals a host-integration bug rather
	// than a runtime condition to recover from.
	ErrNotImplemented = errors.New("not implemented")

	// ErrOrderNotFound indicates the referenced platform order was not found.
	ErrOrderNotFound = errors.New("order not found")
)
