package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies infrastructure failures. Decision outcomes
// (rejected allocations, failed gates) are never errors; they travel as
// data in the result types.
type ErrorCategory string

const (
	ErrorCategoryConfig     ErrorCategory = "CONFIG"
	ErrorCategoryStore      ErrorCategory = "STORE"
	ErrorCategoryMarketData ErrorCategory = "MARKET_DATA"
	ErrorCategoryReporting  ErrorCategory = "REPORTING"
)

// EngineError is a categorized error with component and operation context.
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// New creates a new categorized engine error.
func New(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap annotates an existing error with engine context. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// CategoryOf extracts the category from an error chain, or "" when the
// chain contains no EngineError.
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ""
}
