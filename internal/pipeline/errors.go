package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a step error
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindExecution  ErrorKind = "execution"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindCancelled  ErrorKind = "cancelled"
	ErrorKindFatal      ErrorKind = "fatal"
)

// StepError represents a step-specific error
type StepError struct {
	Kind      ErrorKind `json:"kind"`
	Step      string    `json:"step,omitempty"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e == nil {
		return "unknown step error"
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *StepError {
	return &StepError{
		Kind:      ErrorKindValidation,
		Step:      step,
		Message:   message,
		Retryable: false,
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error, retryable bool) *StepError {
	return &StepError{
		Kind:      ErrorKindExecution,
		Step:      step,
		Message:   "step execution failed",
		Cause:     cause,
		Retryable: retryable,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(step, timeout string) *StepError {
	return &StepError{
		Kind:      ErrorKindTimeout,
		Step:      step,
		Message:   fmt.Sprintf("step exceeded timeout of %s", timeout),
		Retryable: true,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string) *StepError {
	return &StepError{
		Kind:      ErrorKindCancelled,
		Step:      step,
		Message:   "run was cancelled",
		Retryable: false,
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *StepError {
	return &StepError{
		Kind:      ErrorKindFatal,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var sErr *StepError
	if errors.As(err, &sErr) {
		return sErr.Retryable
	}
	return false
}

// WrapError wraps an error with step context. An error that is already a
// StepError keeps its kind and retry flag.
func WrapError(err error, step, message string) *StepError {
	if err == nil {
		return nil
	}

	var sErr *StepError
	if errors.As(err, &sErr) {
		if sErr.Step == "" {
			sErr.Step = step
		}
		if message != "" {
			sErr.Message = fmt.Sprintf("%s: %s", message, sErr.Message)
		}
		return sErr
	}

	return &StepError{
		Kind:      ErrorKindExecution,
		Step:      step,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// ErrorList represents multiple step errors
type ErrorList struct {
	Errors []*StepError `json:"errors"`
}

// Error implements the error interface
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors: %d errors occurred", len(e.Errors))
}

// Add adds an error to the list
func (e *ErrorList) Add(err *StepError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ByStep returns the errors recorded for a specific step
func (e *ErrorList) ByStep(step string) []*StepError {
	var stepErrors []*StepError
	for _, err := range e.Errors {
		if err.Step == step {
			stepErrors = append(stepErrors, err)
		}
	}
	return stepErrors
}
