// Package apperr defines the closed error taxonomy reported to status bars.
//
// Codes borrow HTTP status numbers so a status bar can render them as E<code>.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the four classified failure kinds.
type Kind int

const (
	// ServiceUnavailable: the bus is reachable but the service, object or
	// interface is not there (yet).
	ServiceUnavailable Kind = 503
	// BadGateway: connection-layer failure talking to the bus.
	BadGateway Kind = 502
	// NotFound: invalid interface/member names or configuration.
	NotFound Kind = 404
	// UnprocessableEntity: a message could not be decoded.
	UnprocessableEntity Kind = 422
)

// ErrInterfaceNotFound is reported by bus adapters when the remote object
// exists but does not implement the requested interface.
var ErrInterfaceNotFound = errors.New("interface not found")

// Code returns the numeric code used for the E<code> line and exit status.
func (k Kind) Code() int {
	return int(k)
}

// Marker formats the kind for status bar display, e.g. "E503".
func (k Kind) Marker() string {
	return fmt.Sprintf("E%d", k.Code())
}

// Permanent reports whether retrying can never succeed.
func (k Kind) Permanent() bool {
	switch k {
	case NotFound, UnprocessableEntity:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case ServiceUnavailable:
		return "ServiceUnavailable"
	case BadGateway:
		return "BadGateway"
	case NotFound:
		return "NotFound"
	case UnprocessableEntity:
		return "UnprocessableEntity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Description returns a human-readable summary of the kind.
func (k Kind) Description() string {
	switch k {
	case ServiceUnavailable:
		return "D-Bus interface not available"
	case BadGateway:
		return "D-Bus connection failed"
	case NotFound:
		return "Interface or member not found"
	case UnprocessableEntity:
		return "Invalid message format"
	default:
		return "Unknown error"
	}
}

// Error is a classified failure. Cause is optional.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates a classified error without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error owning cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind.Marker(), e.Kind.Description(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind.Marker(), e.Kind.Description(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Code returns the numeric code of the error's kind.
func (e *Error) Code() int {
	return e.Kind.Code()
}

// Permanent reports whether the error's kind is permanent.
func (e *Error) Permanent() bool {
	return e.Kind.Permanent()
}

// IsPermanent classifies err and reports whether it is permanent.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Permanent()
}

// KindOf returns the classified kind of err.
func KindOf(err error) Kind {
	return Classify(err).Kind
}
