package domain

import (
	"errors"
	"fmt"
)

// Error codes. Handlers map each one to an HTTP status.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	ERATELIMIT    = "rate_limit"
	EINTERNAL     = "internal"

	// Selector and upload codes.
	EPERMISSION = "permission"    // photo library access refused
	EBUDGET     = "budget"        // no fetches left in the selector session
	EBUSY       = "busy"          // a fetch or upload is in flight
	EUPLOAD     = "upload_failed" // at least one photo of a collection failed
)

// internalMessage is shown to clients in place of EINTERNAL messages.
const internalMessage = "An internal error occurred. Please try again later."

// Error is an application error.
//
// Message is safe to show to users, except for EINTERNAL errors whose
// message only goes to logs. Err is the cause, if any, and is never shown.
type Error struct {
	Code    string
	Op      string // e.g. "SelectorService.Fetch"
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code, op, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: cause}
}

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return newError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches a code and message to err.
func Wrap(err error, code, op, message string) *Error {
	return newError(code, op, message, err)
}

// ErrorCode returns the code of the first *Error in err's chain. Validation
// errors are EINVALID and anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message to show a user for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp returns the op of the first *Error in err's chain.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// =============================================================================
// Constructors
// =============================================================================

// NotFound reports a missing resource.
func NotFound(op, resource, id string) *Error {
	return newError(ENOTFOUND, op, fmt.Sprintf("%s with ID %q not found", resource, id), nil)
}

// Invalid reports bad input that is not tied to a single form field.
func Invalid(op, message string) *Error {
	return newError(EINVALID, op, message, nil)
}

// Unauthorized reports missing or bad credentials.
func Unauthorized(op, message string) *Error {
	return newError(EUNAUTHORIZED, op, message, nil)
}

// Conflict reports a uniqueness violation.
func Conflict(op, message string) *Error {
	return newError(ECONFLICT, op, message, nil)
}

// Internal wraps an unexpected failure. message is for logs only.
func Internal(err error, op, message string) *Error {
	return newError(EINTERNAL, op, message, err)
}

// PermissionDenied reports that the user refused access to their photo library.
func PermissionDenied(op string) *Error {
	return newError(EPERMISSION, op, "Permission is required to access photos.", nil)
}

// BudgetExceeded reports that no fetches remain in the current selector session.
func BudgetExceeded(op string) *Error {
	return newError(EBUDGET, op, "No more fetches available. Please confirm or cancel your post.", nil)
}

// Busy reports that the requested transition conflicts with work already in flight.
func Busy(op, message string) *Error {
	return newError(EBUSY, op, message, nil)
}

// UploadFailure wraps the first per-photo failure of an upload.
func UploadFailure(err error, op string) *Error {
	return newError(EUPLOAD, op, "Failed to upload photos.", err)
}

// =============================================================================
// Validation
// =============================================================================

// ValidationError maps form fields to user-facing messages.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed (%d fields)", e.Op, len(e.Fields))
}

// NewValidationError creates a ValidationError holding one field message.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// Add records a message for field and returns e. A nil e starts a new error.
func (e *ValidationError) Add(op, field, message string) *ValidationError {
	if e == nil {
		return NewValidationError(op, field, message)
	}
	e.Fields[field] = message
	return e
}
