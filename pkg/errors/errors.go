// Package errors provides structured error types for pyboot.
//
// Every failure the resolver can report belongs to one category, identified by
// a [Code]. Errors are never recovered locally: they propagate to the caller,
// which can branch on the category with [Is]:
//
//	plan, err := r.BuildDownloadList(ctx, roots)
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // no acceptable wheel on any index
//	}
//
// Codes follow the same naming scheme throughout:
//   - INVALID_*: malformed input (archives, specifiers, markers, config)
//   - *_NOT_FOUND: a requested resource is absent
//   - NETWORK_ERROR / SIZE_UNKNOWN: transport failures
//   - UNSUPPORTED_* / CHECKSUM_MISMATCH: archive content the reader cannot use
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidPackage   Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidArchive   Code = "INVALID_ARCHIVE"
	ErrCodeInvalidMarker    Code = "INVALID_MARKER"
	ErrCodeInvalidSpecifier Code = "INVALID_SPECIFIER"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeMemberNotFound   Code = "MEMBER_NOT_FOUND"
	ErrCodeMetadataNotFound Code = "METADATA_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeSizeUnknown Code = "SIZE_UNKNOWN"

	// Archive content errors
	ErrCodeUnsupportedCompression Code = "UNSUPPORTED_COMPRESSION"
	ErrCodeChecksumMismatch       Code = "CHECKSUM_MISMATCH"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole error chain, so an outer error with a different code
// does not hide an inner match.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
