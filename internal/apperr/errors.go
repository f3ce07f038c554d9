// Package apperr is the error taxonomy surfaced to API clients. Every error
// that should reach a client as something other than a 500 is an *Error whose
// Kind selects the HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks. An *Error matches the sentinel of its kind.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrUpstream       = errors.New("upstream unavailable")
	ErrInternal       = errors.New("internal error")
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindUpstream
)

var kinds = map[Kind]struct {
	sentinel error
	status   int
}{
	KindInternal:       {ErrInternal, http.StatusInternalServerError},
	KindValidation:     {ErrValidation, http.StatusBadRequest},
	KindAuthentication: {ErrAuthentication, http.StatusUnauthorized},
	KindAuthorization:  {ErrAuthorization, http.StatusForbidden},
	KindNotFound:       {ErrNotFound, http.StatusNotFound},
	KindUpstream:       {ErrUpstream, http.StatusBadGateway},
}

// Error carries a client-facing Message and, optionally, the underlying cause.
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

func (e *Error) Is(target error) bool { return kinds[e.Kind].sentinel == target }

// Status is the HTTP status code for the error kind.
func (e *Error) Status() int { return kinds[e.Kind].status }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Authentication(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }

func Authorization(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Upstream marks a failed third-party call. Enrichment degrades on it instead
// of returning it, so clients only see it if a caller chooses to surface it.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Internal wraps an unexpected failure. The cause is logged, never rendered.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "something went wrong", Err: err}
}

// As returns the *Error in err's chain, or an Internal wrapper around err.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
