package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	ECONFLICT = "conflict"        // 409 - Resource conflict (duplicate invoice number, etc.)
	EINTERNAL = "internal"        // 500 - Internal server error (hide details)
	EINVALID  = "invalid"         // 400 - Validation error (bad input)
	ENOTFOUND = "not_found"       // 404 - Resource not found
	ENOTIMPL  = "not_implemented" // 501 - Feature not implemented
	ETOOLARGE = "too_large"       // 413 - Request body too large

	ERATELIMIT = "rate_limited" // 429 - Too many requests
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "invoice.create").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Joined()
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	return ""
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "invoice.list", "invalid status: %s", status)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// =============================================================================
// Validation Errors
// =============================================================================

// ValidationError collects one or more business-rule violations.
// Messages are reported together, in the order they were added.
type ValidationError struct {
	// Fields maps field names to error messages.
	Fields map[string]string

	// Op is the operation where validation failed.
	Op string

	order []string
}

// Error joins every message so the full set survives plain error logging.
func (e *ValidationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Joined())
	}
	return e.Joined()
}

// Add records a message for field. A second message for the same field
// replaces the first but keeps its position.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Messages returns the field messages in insertion order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	seen := make(map[string]bool, len(e.order))
	for _, field := range e.order {
		msgs = append(msgs, e.Fields[field])
		seen[field] = true
	}
	// Fields populated directly on the map (not through Add) have no recorded order.
	for field, msg := range e.Fields {
		if !seen[field] {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Joined returns all messages as a single string.
func (e *ValidationError) Joined() string {
	return strings.Join(e.Messages(), "; ")
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	ve := &ValidationError{Op: op}
	ve.Add(field, message)
	return ve
}

// AddFieldError adds a field error to an existing ValidationError.
// If err is nil or not a ValidationError, creates a new one with the field.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Add(field, message)
		return ve
	}

	ve = &ValidationError{}
	ve.Add(field, message)
	return ve
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields extracts field errors from a ValidationError.
// Returns nil if err is not a ValidationError.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Common errors (convenience)
// =============================================================================

// Invalid creates a validation error for a single issue.
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
