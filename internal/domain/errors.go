package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	Ref      string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Ref)
}

// ErrConflict indicates a resource already exists (e.g. duplicate account name).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrRagUnavailable indicates the external RAG provider did not accept a
// document, either by responding with an error status or by being unreachable.
type ErrRagUnavailable struct {
	Err error
}

func (e *ErrRagUnavailable) Error() string {
	return fmt.Sprintf("rag provider unavailable: %v", e.Err)
}

func (e *ErrRagUnavailable) Unwrap() error {
	return e.Err
}

// ErrGeneratorUnavailable indicates the recommendation generator failed and
// the local fallback was disabled, so the generation cycle aborted.
type ErrGeneratorUnavailable struct {
	Err error
}

func (e *ErrGeneratorUnavailable) Error() string {
	return fmt.Sprintf("recommendation generator unavailable: %v", e.Err)
}

func (e *ErrGeneratorUnavailable) Unwrap() error {
	return e.Err
}
