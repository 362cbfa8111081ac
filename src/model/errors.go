package model

import "fmt"

// ErrorKind values recorded on terminal execution records. Every denial and
// terminal failure carries one of these plus a specific reason string.
const (
	ErrKindValidation          = "validation_error"
	ErrKindRiskDenied          = "risk_denied"
	ErrKindTransientNetwork    = "transient_network_error"
	ErrKindFatalProvider       = "fatal_provider_error"
	ErrKindSlippageExceeded    = "slippage_exceeded"
	ErrKindConfirmationTimeout = "confirmation_timeout"
	ErrKindSigning             = "signing_error"
)

// ValidationError marks a malformed or out-of-range signal. Such signals are
// rejected before any state-machine or ledger interaction beyond an audit
// log entry.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return "signal validation failed: " + e.Reason
}

// ProviderError wraps a failure from the swap provider or the chain RPC.
// Transient errors are retried per the per-step policy; fatal ones
// (invalid pair, rejected signature, insufficient funds) never are.
type ProviderError struct {
	Op        string
	Code      string
	Message   string
	Transient bool
	Cause     error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Kind maps the provider error onto the record-level error taxonomy.
func (e *ProviderError) Kind() string {
	if e.Transient {
		return ErrKindTransientNetwork
	}
	return ErrKindFatalProvider
}
