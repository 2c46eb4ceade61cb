// Package errors provides the engine's error taxonomy (spec §7).
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of failure, independent of transport.
type Code string

const (
	Unauthorized  Code = "UNAUTHORIZED"
	Forbidden     Code = "FORBIDDEN"
	NotFound      Code = "NOT_FOUND"
	InvalidReq    Code = "INVALID_REQUEST"
	InvalidAction Code = "INVALID_ACTION"
	AlreadyActed  Code = "ALREADY_ACTED"
	Conflict      Code = "CONFLICT"
	Internal      Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	Unauthorized:  http.StatusUnauthorized,
	Forbidden:     http.StatusForbidden,
	NotFound:      http.StatusNotFound,
	InvalidReq:    http.StatusBadRequest,
	InvalidAction: http.StatusBadRequest,
	AlreadyActed:  http.StatusBadRequest,
	Conflict:      http.StatusConflict,
	Internal:      http.StatusInternalServerError,
}

// Error is a structured, transport-independent failure.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped error, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair and returns the same error for chaining.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the status code this error's Code maps to.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NewUnauthorized(message string) *Error  { return New(Unauthorized, message) }
func NewForbidden(message string) *Error     { return New(Forbidden, message) }
func NewNotFound(resource, id string) *Error {
	return New(NotFound, fmt.Sprintf("%s not found", resource)).WithDetails("id", id)
}
func NewInvalidRequest(reason string) *Error    { return New(InvalidReq, reason) }
func NewInvalidAction(reason string) *Error     { return New(InvalidAction, reason) }
func NewAlreadyActed(role string) *Error {
	return New(AlreadyActed, "role has already acted this phase").WithDetails("role", role)
}
func NewConflict(message string) *Error { return New(Conflict, message) }
func NewInternal(message string, err error) *Error {
	return Wrap(Internal, message, err)
}

// Is reports whether err is a *Error of the given code.
func Is(err error, code Code) bool {
	var svc *Error
	if errors.As(err, &svc) {
		return svc.Code == code
	}
	return false
}

// As extracts a *Error from an error chain.
func As(err error) *Error {
	var svc *Error
	if errors.As(err, &svc) {
		return svc
	}
	return nil
}

// HTTPStatusFor returns the status code for any error, defaulting to 500.
func HTTPStatusFor(err error) int {
	if svc := As(err); svc != nil {
		return svc.HTTPStatus()
	}
	return http.StatusInternalServerError
}
