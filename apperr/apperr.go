// Package apperr defines the application error taxonomy. Every error that
// crosses the request boundary is one of these kinds; httpx maps each kind
// to a fixed HTTP status.
package apperr

import (
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindBadRequest covers malformed requests and failed generation calls.
	KindBadRequest Kind = iota
	// KindConstraint means a field or form definition violates its own
	// declared bounds.
	KindConstraint
	// KindLimitExceeded means a configured ceiling (forms, fields,
	// responses) was hit.
	KindLimitExceeded
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
	KindRateLimited
)

type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-tag validation messages for a rejected submission.
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindConstraint:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func Constraint(msg string) *Error {
	return &Error{Kind: KindConstraint, Message: msg}
}

func Constraintf(format string, args ...any) *Error {
	return Constraint(fmt.Sprintf(format, args...))
}

func LimitExceededf(format string, args ...any) *Error {
	return &Error{Kind: KindLimitExceeded, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "Rate limit exceeded. Please try again later."}
}

// Submission wraps a per-tag error map into a single rejection.
func Submission(fields map[string]string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: "Submission failed validation.",
		Fields:  fields,
	}
}
