// Package domain provides shared domain-level errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness constraint rejected the write.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates malformed input.
var ErrValidation = errors.New("validation error")

// Code classifies an Error for callers and the HTTP layer.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeForbidden           Code = "FORBIDDEN"
	CodeInvalidProperty     Code = "INVALID_PROPERTY"
	CodeRenterNotVisible    Code = "RENTER_NOT_VISIBLE"
	CodeDuplicateContact    Code = "DUPLICATE_CONTACT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         Code = "RATE_LIMITED"
)

// Error is a typed failure carrying a machine-readable code and,
// for eligibility failures, a reason the UI can act on.
type Error struct {
	Code    Code
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code (and reason, when the target
// sets one), plus the package sentinels for the corresponding codes.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrConflict:
		return e.Code == CodeDuplicateContact
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Reason == "" || t.Reason == e.Reason)
}

// NewError builds an Error with the given code and message.
func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Forbidden builds a FORBIDDEN error with a reason code.
func Forbidden(reason, msg string) *Error {
	return &Error{Code: CodeForbidden, Reason: reason, Message: msg}
}

// Validationf builds a VALIDATION_ERROR with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a collaborator failure as UPSTREAM_UNAVAILABLE.
func Upstream(msg string, err error) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: msg, Err: err}
}

// CodeOf returns the code carried by err, mapping bare sentinels
// to their codes. It returns "" for unclassified errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrConflict):
		return CodeDuplicateContact
	}
	return ""
}

// ReasonOf returns the reason carried by err, or "".
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
