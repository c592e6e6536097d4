// Package domainerrors provides coded errors shared by every service layer.
// Services attach a Code describing the kind of failure; transports translate
// codes to HTTP statuses without inspecting message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks input that fails a domain rule before any side
	// effect (e.g. milestone amounts not summing to the total).
	CodeValidation Code = "validation_error"

	// CodeInvalidInput marks malformed primitives (bad UUIDs, empty fields).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks unparseable or structurally wrong requests.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks references to entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeInvalidState marks an action outside the entity's lifecycle state,
	// e.g. submitting against a rejected subsidy.
	CodeInvalidState Code = "invalid_state"

	// CodeConflict marks attempts to repeat a one-shot action, e.g. releasing
	// a milestone that is already released.
	CodeConflict Code = "conflict"

	// CodeForbidden marks authorization failures (auditor mismatch).
	CodeForbidden Code = "forbidden"

	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeUnavailable marks an upstream dependency (ledger node, store)
	// failing or unreachable.
	CodeUnavailable Code = "unavailable"

	// CodeTimeout marks an operation abandoned after its deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal marks unexpected failures. Messages for internal errors
	// are never surfaced to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is and
// errors.As keep working through service boundaries.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its transport status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUnavailable:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
