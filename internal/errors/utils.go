package errors

import (
	"errors"
	"io/fs"
)

// Wrap wraps an error with additional context, creating a CharsetError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *CharsetError {
	if err == nil {
		return nil
	}

	// Keep path and context of an existing CharsetError
	var ce *CharsetError
	if errors.As(err, &ce) {
		return &CharsetError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ce,
			Context:     ce.Context,
			Path:        ce.Path,
			Recoverable: ce.Recoverable,
		}
	}

	return &CharsetError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeIO || errType == ErrorTypeEncoding,
	}
}

// WrapConfig wraps an error as a configuration error (non-recoverable)
func WrapConfig(err error, code, message string) *CharsetError {
	ce := Wrap(err, ErrorTypeConfig, code, message)
	if ce != nil {
		ce.Recoverable = false
	}
	return ce
}

// WrapIO wraps a filesystem error as an I/O error for path, picking the code
// from the kind of failure.
func WrapIO(err error, path, message string) *CharsetError {
	if err == nil {
		return nil
	}

	ce := Wrap(err, ErrorTypeIO, IOCode(err), message)
	ce.Path = path
	ce.Recoverable = true

	return ce
}

// IOCode maps a filesystem error to one of the I/O error codes.
func IOCode(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrCodePermissionDenied
	default:
		return ErrCodeReadFailed
	}
}

// GetCode returns the code of a CharsetError, or ErrCodeInternalError for
// any other error.
func GetCode(err error) string {
	var ce *CharsetError
	if errors.As(err, &ce) {
		return ce.Code
	}

	return ErrCodeInternalError
}

// GetPath returns the path recorded on a CharsetError anywhere in the chain.
func GetPath(err error) string {
	for err != nil {
		var ce *CharsetError
		if !errors.As(err, &ce) {
			return ""
		}
		if ce.Path != "" {
			return ce.Path
		}
		err = ce.Cause
	}

	return ""
}
