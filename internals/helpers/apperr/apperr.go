// file: internals/helpers/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind groups errors by how the caller is expected to react.
type Kind uint8

const (
	Unknown Kind = iota
	Validation
	NotFound
	Authorization
	WindowClosed
	TransientStore
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Authorization:
		return "authorization"
	case WindowClosed:
		return "window_closed"
	case TransientStore:
		return "transient_store"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a domain error carrying a stable reason code.
// Two errors match under errors.Is when their Kind and Code match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Withf returns a copy with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy that keeps err as its cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// As extracts the *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Unknown
}

// HTTPStatus maps an error to the status code used by the HTTP surface.
// Ownership failures are reported as 404 so foreign records stay invisible.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation, WindowClosed:
		return fiber.StatusBadRequest
	case NotFound, Authorization:
		return fiber.StatusNotFound
	case TransientStore:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Code returns the reason code, or INTERNAL_ERROR for foreign errors.
func Code(err error) string {
	if ae, ok := As(err); ok && ae.Code != "" {
		return ae.Code
	}
	return "INTERNAL_ERROR"
}
