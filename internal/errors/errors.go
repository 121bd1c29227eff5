package errors

import (
	"fmt"
)

// AppError is a structured application error with a stable code.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an error with additional context, preserving an existing code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: appErr.Code, Message: message, Cause: appErr}
	}
	return &AppError{Code: CodeInternalError, Message: message, Cause: err}
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN".
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeSchemaViolation = "SCHEMA_VIOLATION"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Common error constructors

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func SchemaViolation(message string) *AppError {
	return New(CodeSchemaViolation, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func StorageError(message string, cause error) *AppError {
	return &AppError{Code: CodeStorageError, Message: message, Cause: cause}
}
