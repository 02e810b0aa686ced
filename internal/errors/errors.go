package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeIOError                = "IO_ERROR"
	CodeComputationError       = "COMPUTATION_ERROR"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeDependencyConstruction = "DEPENDENCY_CONSTRUCTION_ERROR"
	CodeCyclicDependency       = "CYCLIC_DEPENDENCY"
	CodeConfigInvalid          = "CONFIG_INVALID"
	CodeStateError             = "STATE_ERROR"
)

// StrataError is a structured error with a code and actionable suggestion.
type StrataError struct {
	Code       string // machine-readable code (e.g. IO_ERROR)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *StrataError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *StrataError) Unwrap() error {
	return e.Err
}

// New creates a StrataError with the given code and message.
func New(code, message string) *StrataError {
	return &StrataError{Code: code, Message: message}
}

// Wrap creates a StrataError wrapping an existing error.
func Wrap(code, message string, err error) *StrataError {
	return &StrataError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns the same error with the suggestion set.
func (e *StrataError) WithSuggestion(suggestion string) *StrataError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *StrataError) Is(target error) bool {
	var se *StrataError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// AsCode extracts the StrataError code from an error, or "" if not a StrataError.
func AsCode(err error) string {
	var se *StrataError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a StrataError.
func Suggestion(err error) string {
	var se *StrataError
	if errors.As(err, &se) {
		return se.Suggestion
	}
	return ""
}
