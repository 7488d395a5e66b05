// Package apperr defines the application error taxonomy. Every failure a
// handler can surface is one of the five kinds below; the HTTP layer maps
// each kind to a status code.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindNotFound
	KindIllegalTransition
	KindConflict
)

// Error is a coded application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// Authorization returns a generic denial. Callers should not put details
// about the denied resource in the message.
func Authorization(code, message string) *Error {
	return New(KindAuthorization, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func IllegalTransition(code, message string) *Error {
	return New(KindIllegalTransition, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// KindOf extracts the kind from err, or 0 if err is not an application error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Status maps an error to its HTTP status code. Unknown errors are internal.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindIllegalTransition:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
