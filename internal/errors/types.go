// Package errors defines the structured error types shared by the validator,
// the scanner and the command layer.
//
// Every failure that reaches a user is a *CharsetError carrying a category
// (ErrorType), a stable code, the path it concerns and the underlying cause.
// Categories decide how the scanner files a failure: encoding mismatches and
// I/O failures are recorded per path and never stop a run, configuration
// errors abort it.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeEncoding ErrorType = "encoding"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// CharsetError is a structured error type with context.
type CharsetError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *CharsetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("'%s'", e.Path))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CharsetError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *CharsetError) Is(target error) bool {
	var t *CharsetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CharsetError) WithContext(key string, value interface{}) *CharsetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the filesystem path the error concerns.
func (e *CharsetError) WithPath(path string) *CharsetError {
	e.Path = path

	return e
}

// NewEncodingError creates an encoding mismatch error.
func NewEncodingError(code, message string) *CharsetError {
	return &CharsetError{
		Type:        ErrorTypeEncoding,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CharsetError {
	return &CharsetError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CharsetError {
	return &CharsetError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CharsetError {
	return &CharsetError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable, i.e. the run may continue
// after recording it.
func IsRecoverable(err error) bool {
	var ce *CharsetError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// IsIOError checks if an error belongs to the I/O class.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsEncodingError checks if an error reports malformed input.
func IsEncodingError(err error) bool {
	return hasType(err, ErrorTypeEncoding)
}

func hasType(err error, t ErrorType) bool {
	var ce *CharsetError
	if errors.As(err, &ce) {
		return ce.Type == t
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error with appropriate logging.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ce *CharsetError
	if !errors.As(err, &ce) {
		h.logger.Error(ctx, err, "Unhandled error occurred")

		return
	}

	switch ce.Type {
	case ErrorTypeEncoding:
		h.logger.Warn(ctx, err, "Encoding check failed",
			"code", ce.Code,
			"path", ce.Path)
	case ErrorTypeIO:
		h.logger.Warn(ctx, err, "Error processing path",
			"code", ce.Code,
			"path", ce.Path)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ce.Type,
			"code", ce.Code,
			"path", ce.Path)
	}
}

// Common error codes.
const (
	ErrCodeFileNotFound        = "ERR_FILE_NOT_FOUND"
	ErrCodeNotRegularFile      = "ERR_NOT_REGULAR_FILE"
	ErrCodePermissionDenied    = "ERR_PERMISSION_DENIED"
	ErrCodeReadFailed          = "ERR_READ_FAILED"
	ErrCodeDirectoryRead       = "ERR_DIRECTORY_READ"
	ErrCodeMalformedInput      = "ERR_MALFORMED_INPUT"
	ErrCodeUnknownEncoding     = "ERR_UNKNOWN_ENCODING"
	ErrCodeUnsupportedEncoding = "ERR_UNSUPPORTED_ENCODING"
	ErrCodeInvalidPattern      = "ERR_INVALID_PATTERN"
	ErrCodeInvalidRootPath     = "ERR_INVALID_ROOT_PATH"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeInternalError       = "ERR_INTERNAL"
)

// ErrMalformedInput creates the error recorded for a file that failed its
// encoding check.
func ErrMalformedInput(path, encoding string) *CharsetError {
	return NewEncodingError(
		ErrCodeMalformedInput,
		fmt.Sprintf("malformed input for '%s'", encoding),
	).WithPath(path)
}

// ErrNotRegularFile creates the error returned when a validated path is
// missing or not a regular file.
func ErrNotRegularFile(path string, cause error) *CharsetError {
	code := ErrCodeNotRegularFile
	if cause != nil {
		code = ErrCodeFileNotFound
	}

	return NewIOError(code, "not a valid (present, regular) file", cause).WithPath(path)
}

// ErrUnknownEncoding creates a configuration error for an unresolvable
// encoding name.
func ErrUnknownEncoding(name string, cause error) *CharsetError {
	err := NewConfigError(ErrCodeUnknownEncoding, fmt.Sprintf("unknown encoding '%s'", name))
	err.Cause = cause

	return err.WithContext("encoding", name)
}

// ErrInvalidRootPath creates the error for a root path that is neither a
// directory nor a regular file.
func ErrInvalidRootPath(path string) *CharsetError {
	return NewConfigError(
		ErrCodeInvalidRootPath,
		"don't know how to process path, not a directory or regular file",
	).WithPath(path)
}
