// Package errdefs defines the error taxonomy shared by the capture,
// segmentation, transcription and summarization layers. Every failure that
// crosses a package boundary carries one of these codes so callers can
// produce a specific, human-readable cause instead of a generic message.
package errdefs

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code int

const (
	// CodeUnknown is the zero value for unclassified errors.
	CodeUnknown Code = iota

	// CodeNotFound means the source resource is missing.
	CodeNotFound

	// CodeDecodeFailure means the resource exists but its audio cannot be parsed.
	CodeDecodeFailure

	// CodeWriteAfterFinalize means a capture stream was written after Finalize.
	CodeWriteAfterFinalize

	// CodeBackendUnavailable means a transcription or summarization backend is
	// unreachable or the requested model is missing. Distinguished from
	// CodeBackendError so the caller can suggest a fix (start the service,
	// pull the model) rather than just report a failure.
	CodeBackendUnavailable

	// CodeBackendError means a backend call failed for any other reason.
	CodeBackendError

	// CodeBudgetExceeded means hierarchical summarization could not shrink its
	// input under the character budget within the recursion ceiling.
	CodeBudgetExceeded
)

// String returns the string representation of the code.
func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeDecodeFailure:
		return "DECODE_FAILURE"
	case CodeWriteAfterFinalize:
		return "WRITE_AFTER_FINALIZE"
	case CodeBackendUnavailable:
		return "BACKEND_UNAVAILABLE"
	case CodeBackendError:
		return "BACKEND_ERROR"
	case CodeBudgetExceeded:
		return "BUDGET_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// Error is the structured error type carrying a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error under a code.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// IsCode reports whether err or any error in its chain carries the code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
