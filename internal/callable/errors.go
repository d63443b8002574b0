// Package callable implements the error model and wire format of Firebase callable functions.
package callable

import (
	"errors"
	"net/http"
	"strings"
)

// Kind is the canonical callable error code
type Kind string

const (
	Unauthenticated   Kind = "unauthenticated"
	InvalidArgument   Kind = "invalid-argument"
	ResourceExhausted Kind = "resource-exhausted"
	Internal          Kind = "internal"
)

// Status is the upper snake case form used on the wire, e.g. INVALID_ARGUMENT
func (k Kind) Status() string {
	return strings.ToUpper(strings.ReplaceAll(string(k), "-", "_"))
}

// HTTPStatus maps the kind onto the status code the callable protocol uses
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidArgument:
		return http.StatusBadRequest
	case ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a structured failure returned to a callable client
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewError creates an Error
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// FromError returns err as a callable Error, wrapping anything else as internal
func FromError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(Internal, err.Error())
}
