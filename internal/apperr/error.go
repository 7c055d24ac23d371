package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindIO           Kind = "io_failure"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
)

// Fields maps a request field to its validation messages.
type Fields map[string][]string

func (f Fields) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

type Error struct {
	Kind     Kind
	Message  string
	Fields   Fields
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Internal
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func Validation(fields Fields) *Error {
	return &Error{Kind: KindValidation, Message: "validation error", Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func IO(msg string, err error) *Error {
	return &Error{Kind: KindIO, Message: msg, Internal: err}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
