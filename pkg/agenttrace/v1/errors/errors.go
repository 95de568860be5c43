// Package errors defines the public error types returned by agenttrace
// components. Infrastructure failures that must never interrupt the host
// (storage saves, hook callbacks) are downgraded to diagnostics by the
// tracer and never surface through these types.
package errors

import (
	"errors"
	"fmt"
)

// ConfigError represents an error encountered while constructing or
// validating tracer configuration. Configuration errors are fatal: the
// caller must fix them before tracing can proceed.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that trace data failed a structural invariant
// check, e.g. an edge referencing a node id not present in its graph.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// LoadError is raised by the serializer when a trace payload is malformed or
// structurally invalid. It is distinct from file-level I/O conditions such as
// a missing file, which callers handle separately via the fs error types.
type LoadError struct {
	Message string
	Cause   error
}

func NewLoadError(message string, cause error) *LoadError {
	return &LoadError{Message: message, Cause: cause}
}
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("trace load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("trace load error: %s", e.Message)
}
func (e *LoadError) Unwrap() error { return e.Cause }

// StorageError represents a failure of a storage backend operation. Save
// failures are caught by the tracer and converted to diagnostics; Load and
// ListTraces failures propagate to the caller.
type StorageError struct {
	Op      string // "save", "load", "list"
	TraceID string
	Cause   error
}

func NewStorageError(op, traceID string, cause error) *StorageError {
	return &StorageError{Op: op, TraceID: traceID, Cause: cause}
}
func (e *StorageError) Error() string {
	if e.TraceID == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage %s failed for trace '%s': %v", e.Op, e.TraceID, e.Cause)
}
func (e *StorageError) Unwrap() error { return e.Cause }

// ErrTraceNotFound is the absent-result indicator returned by storage
// backends when a requested trace id is unknown.
var ErrTraceNotFound = errors.New("trace not found")

// IsNotFound checks whether an error indicates a missing trace.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTraceNotFound)
}
