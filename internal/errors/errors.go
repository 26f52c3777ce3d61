// Package errors provides a lightweight structured error type (RelKitError)
// for category-based classification in the task runner and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a relkit error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External toolchain errors
	CategoryTool      ErrorCategory = "tool"
	CategoryToolchain ErrorCategory = "toolchain" // tool not installed / not in PATH

	// Task execution errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryPublish    ErrorCategory = "publish"

	// Runtime and infrastructure errors
	CategoryGit      ErrorCategory = "git"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// RelKitError is a structured error with category, severity, and context
type RelKitError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for RelKitError
type ContextFields map[string]any

// Error implements the error interface
func (e *RelKitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RelKitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RelKitError) WithContext(key string, value any) *RelKitError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the severity of the error
func (e *RelKitError) WithSeverity(severity ErrorSeverity) *RelKitError {
	e.Severity = severity
	return e
}

// New creates a new RelKitError
func New(category ErrorCategory, severity ErrorSeverity, message string) *RelKitError {
	return &RelKitError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new RelKitError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelKitError {
	return &RelKitError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with default error severity
func WrapError(err error, category ErrorCategory, message string) *RelKitError {
	return &RelKitError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if rke, ok := err.(*RelKitError); ok {
		return rke.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a RelKitError
func GetCategory(err error) ErrorCategory {
	if rke, ok := err.(*RelKitError); ok {
		return rke.Category
	}
	return CategoryInternal
}
