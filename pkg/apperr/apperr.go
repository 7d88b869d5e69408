// Package apperr defines the typed error taxonomy returned by every core
// operation. Callers branch on the error code, not the message, so codes are
// stable and messages are free-form.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Code classifies an operation failure.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeConflict        Code = "CONFLICT"
	CodeValidation      Code = "VALIDATION"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeInternal        Code = "INTERNAL"
)

// Error is the single error type surfaced by the core. The wrapped cause is
// preserved for logging but never shown to callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newError(CodeInvalidState, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(CodeConflict, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newError(CodeValidation, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(CodeUnauthenticated, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(CodeForbidden, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return newError(CodeInternal, format, args...)
}

// Wrap attaches a cause to an Error for logging. Returns e unchanged if it is
// not an *Error.
func Wrap(e error, cause error) error {
	var ae *Error
	if errors.As(e, &ae) {
		ae.cause = cause
		return ae
	}
	return e
}

// CodeOf extracts the Code from err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// FromStorage translates a storage-layer error into a typed error so raw gorm
// errors never cross the operation boundary. The message arguments name the
// entity for the NotFound and Conflict cases.
func FromStorage(err error, notFoundMsg, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Code: CodeNotFound, Message: notFoundMsg, cause: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
		return &Error{Code: CodeConflict, Message: conflictMsg, cause: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &Error{Code: CodeConflict, Message: conflictMsg, cause: err}
	}
	return &Error{Code: CodeInternal, Message: "internal error", cause: err}
}

// isDuplicateKey catches drivers that report unique violations as plain
// errors (sqlite, older postgres driver paths).
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
