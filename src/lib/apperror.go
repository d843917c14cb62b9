package lib

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthenticated
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	default:
		return "InternalError"
	}
}

// HTTPStatus is the response status for errors of this kind. Conflicts are
// reported as 400 to stay compatible with the existing frontend.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindUnauthenticated, KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// APIError is an error that knows how it should be reported to the client
type APIError struct {
	error
	kind    ErrorKind
	message string
}

func (e *APIError) Unwrap() error {
	return e.error
}

func (e *APIError) Kind() ErrorKind {
	return e.kind
}

func (e *APIError) HTTPStatus() int {
	return e.kind.HTTPStatus()
}

// Message is the text shown to the client. Internal errors never leak the
// wrapped cause.
func (e *APIError) Message() string {
	return e.message
}

func newAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{error: errors.New(message), kind: kind, message: message}
}

func Validation(message string) *APIError {
	return newAPIError(KindValidation, message)
}

func Unauthenticated(message string) *APIError {
	return newAPIError(KindUnauthenticated, message)
}

func Unauthorized(message string) *APIError {
	return newAPIError(KindUnauthorized, message)
}

func NotFound(message string) *APIError {
	return newAPIError(KindNotFound, message)
}

func Conflict(message string) *APIError {
	return newAPIError(KindConflict, message)
}

// Internal wraps an unexpected failure
func Internal(err error) *APIError {
	if err == nil {
		err = errors.New("internal error")
	}
	return &APIError{error: err, kind: KindInternal, message: "Internal server error"}
}

// KindOf reports the kind of err, KindInternal for anything that is not an APIError
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.kind
	}
	return KindInternal
}
