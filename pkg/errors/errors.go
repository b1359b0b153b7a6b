// Package errors provides structured error types for the gitdag surfaces
// (CLI, HTTP API, configuration).
//
// The ancestry core reports failures with its own typed errors. This package
// gives the layers around it:
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND / UNKNOWN_*: Resource not found
//   - BACKEND_*: Version-control backend failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRef, "invalid reference: %s", ref)
//	if errors.Is(err, errors.ErrCodeInvalidRef) {
//	    // Handle validation error
//	}
//
//	// Translate errors from the ancestry core
//	if _, err := g.Add(ctx, ref); err != nil {
//	    return errors.FromGraph(err)
//	}
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/gitdag/pkg/ancestry"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidRef    Code = "INVALID_REF"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeRefNotFound   Code = "REF_NOT_FOUND"
	ErrCodeUnknownCommit Code = "UNKNOWN_COMMIT"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Graph state errors
	ErrCodeDuplicateCommit     Code = "DUPLICATE_COMMIT"
	ErrCodeInconsistentHistory Code = "INCONSISTENT_HISTORY"

	// Backend errors
	ErrCodeBackend  Code = "BACKEND_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"
	ErrCodeCanceled Code = "CANCELED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
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
		return e.Message
	}
	return err.Error()
}

// FromGraph translates an error returned by the ancestry core into a coded
// *Error. Errors that already carry a code are returned unchanged, and nil
// stays nil. Anything the core did not classify is treated as a backend
// failure.
func FromGraph(err error) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return err
	}

	var (
		refErr *ancestry.ReferenceError
		dupErr *ancestry.DuplicateNodeError
		unkErr *ancestry.UnknownNodeError
		incErr *ancestry.InconsistencyError
	)
	switch {
	case errors.As(err, &refErr):
		return Wrap(ErrCodeRefNotFound, err, "reference %q does not name a commit", refErr.Ref)
	case errors.As(err, &dupErr):
		return Wrap(ErrCodeDuplicateCommit, err, "%s is already in the graph", dupErr.ID.Short())
	case errors.As(err, &unkErr):
		return Wrap(ErrCodeUnknownCommit, err, "%s is not in the graph", unkErr.ID.Short())
	case errors.As(err, &incErr):
		return Wrap(ErrCodeInconsistentHistory, err, "repository answers for %s contradict the graph", incErr.ID.Short())
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrCodeTimeout, err, "backend timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(ErrCodeCanceled, err, "operation canceled")
	default:
		return Wrap(ErrCodeBackend, err, "backend query failed")
	}
}
