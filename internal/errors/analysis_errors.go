package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// ErrorCategory represents the stage of an analysis that failed
type ErrorCategory string

const (
	// Fatal for the run
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryData          ErrorCategory = "DATA"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"

	// Raised while computing or writing results
	ErrorCategorySimulation ErrorCategory = "SIMULATION"
	ErrorCategoryOutput     ErrorCategory = "OUTPUT"
	ErrorCategoryNetwork    ErrorCategory = "NETWORK"
	ErrorCategoryCancelled  ErrorCategory = "CANCELLED"
)

// AnalysisError represents a categorized error with context
type AnalysisError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Component, e.Operation)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping
func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error comes from inputs the user must fix
func (e *AnalysisError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration ||
		e.Category == ErrorCategoryData ||
		e.Category == ErrorCategoryValidation
}

// ExitCode maps the category to a process exit status
func (e *AnalysisError) ExitCode() int {
	switch e.Category {
	case ErrorCategoryConfiguration, ErrorCategoryValidation:
		return 2
	case ErrorCategoryCancelled:
		return 130
	default:
		return 1
	}
}

// NewAnalysisError creates a new categorized error
func NewAnalysisError(category ErrorCategory, component, operation, message string) *AnalysisError {
	return &AnalysisError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with analysis context
func WrapError(err error, category ErrorCategory, component, operation string) *AnalysisError {
	if err == nil {
		return nil
	}

	return &AnalysisError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *AnalysisError) WithContext(key string, value interface{}) *AnalysisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CategorizeError attempts to categorize a generic error. Existing
// AnalysisErrors anywhere in the chain are returned as is.
func CategorizeError(err error, component, operation string) *AnalysisError {
	if err == nil {
		return nil
	}

	var ae *AnalysisError
	if stderrors.As(err, &ae) {
		return ae
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrorCategoryCancelled, component, operation)
	}

	if stderrors.Is(err, os.ErrNotExist) || stderrors.Is(err, os.ErrPermission) {
		return WrapError(err, ErrorCategoryData, component, operation)
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "dial") ||
		strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "download") {
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	}

	if strings.Contains(errMsg, "missing column") || strings.Contains(errMsg, "empty series") ||
		strings.Contains(errMsg, "csv") {
		return WrapError(err, ErrorCategoryData, component, operation)
	}

	if strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "must be") {
		return WrapError(err, ErrorCategoryValidation, component, operation)
	}

	return WrapError(err, ErrorCategorySimulation, component, operation)
}

// Common error constructors
func NewDataError(component, operation string, err error) *AnalysisError {
	return WrapError(err, ErrorCategoryData, component, operation)
}

func NewSimulationError(component, operation string, err error) *AnalysisError {
	return WrapError(err, ErrorCategorySimulation, component, operation)
}

func NewOutputError(component, operation string, err error) *AnalysisError {
	return WrapError(err, ErrorCategoryOutput, component, operation)
}

func NewValidationError(component, operation, message string) *AnalysisError {
	return NewAnalysisError(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *AnalysisError {
	return NewAnalysisError(ErrorCategoryConfiguration, component, operation, message)
}
