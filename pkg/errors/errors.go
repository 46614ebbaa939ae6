// Package errors defines the typed error taxonomy shared by the protocol
// core. Every failure crossing a package boundary carries one of these codes
// so callers can branch on outcomes without string matching and the transport
// layer can translate them to HTTP statuses in one place.
package errors

import (
	"errors"
	"net/http"
)

// Code identifies a failure class.
type Code string

const (
	// CodeInvalidInput covers malformed caller input: non-positive amounts,
	// degenerate weight configurations, unparsable requests.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidState marks an operation not permitted in the current
	// ledger state (e.g. deposit while a withdrawal is pending).
	CodeInvalidState Code = "invalid_state"
	// CodeCooldownNotElapsed is returned by early withdrawal finalization.
	// Callers own the retry policy; the core never waits.
	CodeCooldownNotElapsed Code = "cooldown_not_elapsed"
	// CodeNotFound marks an unknown participant or profile reference.
	CodeNotFound Code = "not_found"
	// CodeInternal is the fallback for infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is the concrete error type carried across the core.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is lets errors.Is match two protocol errors by code, so sentinel errors
// like storage not-found values compare correctly after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New builds a typed error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the protocol code from err, or CodeInternal when err was
// produced outside the core.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the facade responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeInvalidState, CodeCooldownNotElapsed:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
