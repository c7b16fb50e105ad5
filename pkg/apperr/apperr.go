// Package apperr is the error taxonomy shared by services and HTTP handlers.
// Services return *Error values; handlers translate the Kind into a status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error carries a client-safe message. Err, when present, is the underlying
// cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func Auth(format string, args ...any) *Error       { return newf(KindAuth, format, args...) }
func Conflict(format string, args ...any) *Error   { return newf(KindConflict, format, args...) }

// Internal wraps an unexpected failure. The message shown to clients is
// always generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// Wrap attaches a cause to a classified error without changing its message.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.Err = err
	return e
}

// KindOf reports the kind of err; anything unclassified is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
