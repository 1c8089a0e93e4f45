package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeProcess    ErrorType = "process"
	ErrorTypeCommand    ErrorType = "command"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// Context key holding the exit status of a failed command
const ContextKeyExitCode = "exit_code"

// Exit statuses used when no child status is available, following shell conventions
const (
	ExitCodeGeneric   = 1
	ExitCodeTimeout   = 124
	ExitCodeNotFound  = 127
	ExitCodeCancelled = 130
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewNotFoundError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeNotFound, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcess, message, cause)
}

// NewCommandError reports a delegated command that terminated with a non-zero exit status
func NewCommandError(message string, exitCode int, cause error) *DomainError {
	return NewDomainError(ErrorTypeCommand, message, cause).WithContext(ContextKeyExitCode, exitCode)
}

func NewTimeoutError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeTimeout, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeCancelled, message, cause)
}

// Error checking helpers
func IsValidationError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeValidation
}

func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeNotFound
}

func IsProcessError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeProcess
}

func IsCommandError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeCommand
}

func IsTimeoutError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeTimeout
}

func IsIOError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeIO
}

func IsCancelledError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeCancelled
}

// ExitCode maps an error to the status the process should exit with.
// The first typed error along the cause chain decides, so wrapping never hides a child's status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var domainErr *DomainError
	for cur := err; cur != nil && errors.As(cur, &domainErr); cur = domainErr.Cause {
		switch domainErr.Type {
		case ErrorTypeCommand:
			if code, ok := domainErr.Context[ContextKeyExitCode].(int); ok && code != 0 {
				return code
			}
			return ExitCodeGeneric
		case ErrorTypeNotFound:
			return ExitCodeNotFound
		case ErrorTypeTimeout:
			return ExitCodeTimeout
		case ErrorTypeCancelled:
			return ExitCodeCancelled
		}
	}

	return ExitCodeGeneric
}
