// Package errs defines the typed application errors that handlers map to
// HTTP responses.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Code int
	Msg  string
	Err  error
	// Fields holds per-field validation messages keyed by input name.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &Error{Code: http.StatusBadRequest, Msg: msg} }

func Validation(fields map[string]string) error {
	return &Error{Code: http.StatusBadRequest, Msg: "Validation failed", Fields: fields}
}

func Unauthorized(msg string) error { return &Error{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &Error{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string) error     { return &Error{Code: http.StatusConflict, Msg: msg} }

func TooManyRequests(msg string) error {
	return &Error{Code: http.StatusTooManyRequests, Msg: msg}
}

// Upstream reports a failed call to the mail relay or media CDN.
func Upstream(code int, msg string, err error) error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// As extracts an *Error; anything else becomes an internal error.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: http.StatusInternalServerError, Msg: "Internal Server Error", Err: err}
}

func CodeOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return As(err).Code
}

// Fields accumulates validation messages; the first message per field wins.
type Fields map[string]string

func (f Fields) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return Validation(f)
}
