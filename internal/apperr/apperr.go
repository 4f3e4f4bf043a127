package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the caller-actionable outcomes the
// service layer can produce. Transport codes are derived from kinds at the
// HTTP boundary, never the other way around.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidState      Kind = "invalid_state"
	KindTooLateToCancel   Kind = "too_late_to_cancel"
	KindExhaustedSequence Kind = "exhausted_sequence"
	KindInternal          Kind = "internal"
)

// Error carries a kind, a human-readable message and an optional cause.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status code the API layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindTooLateToCancel:
		return http.StatusUnprocessableEntity
	case KindExhaustedSequence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
