package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every business failure wraps exactly one of these.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Error carries a kind together with a machine readable code and a human message.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError builds an *Error of the given kind.
func NewError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Forbidden(message string) error {
	return NewError(ErrForbidden, "forbidden", message)
}

func InvalidInput(message string) error {
	return NewError(ErrInvalidInput, "invalid_input", message)
}

func NotFound(what string) error {
	return NewError(ErrNotFound, "not_found", what+" not found")
}

func InvalidState(message string) error {
	return NewError(ErrInvalidState, "invalid_state", message)
}

func Unauthenticated(err error) error {
	return &Error{Kind: ErrUnauthenticated, Code: "unauthenticated", Message: "authentication required", Err: err}
}

// ArtistUnavailable is returned when a requested window overlaps an existing commitment.
func ArtistUnavailable() error {
	return NewError(ErrConflict, "artist_unavailable", "artist is not available in the requested window")
}

// Code extracts the error code, falling back to a code derived from the kind.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrDependencyFailure):
		return "dependency_failure"
	default:
		return "internal_error"
	}
}

// Message returns the user facing message of a business error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
