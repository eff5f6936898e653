package errors

import (
	"errors"
	"fmt"
)

var (
	// Payment errors
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// PaymentCode discriminates the payment error taxonomy.
type PaymentCode string

const (
	CodeNotActive               PaymentCode = "not_active"
	CodeInvalidState            PaymentCode = "invalid_state"
	CodeBillingAddressNotSet    PaymentCode = "billing_address_not_set"
	CodeGatewayNotAvailable     PaymentCode = "gateway_not_available"
	CodePaymentError            PaymentCode = "payment_error"
	CodeAmountInvalid           PaymentCode = "amount_invalid"
	CodeUnauthorizedTransaction PaymentCode = "unauthorized_transaction"
)

// PaymentError is the caller-facing failure of an orchestrator operation.
// Message is safe to surface; for CodePaymentError it carries the raw
// provider error, for all other codes it is static.
type PaymentError struct {
	Code    PaymentCode
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match by code alone, so callers can test against
// &PaymentError{Code: CodeNotActive} without caring about the message.
func (e *PaymentError) Is(target error) bool {
	var pe *PaymentError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Code == "" || pe.Code == e.Code
}

// NewPaymentError creates a PaymentError with a static message.
func NewPaymentError(code PaymentCode, message string) *PaymentError {
	return &PaymentError{Code: code, Message: message}
}

// WrapPaymentError creates a PaymentError wrapping an underlying cause.
func WrapPaymentError(code PaymentCode, message string, err error) *PaymentError {
	return &PaymentError{Code: code, Message: message, Err: err}
}

// GatewayError signals that an adapter broke the gateway contract: bad kind,
// non-serializable raw response, currency drift. It is a provider or
// programmer bug, never a recoverable payment outcome.
type GatewayError struct {
	Gateway string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: contract violation: %s", e.Gateway, e.Message)
}

// NewGatewayError creates a GatewayError.
func NewGatewayError(gateway, message string) *GatewayError {
	return &GatewayError{Gateway: gateway, Message: message}
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
