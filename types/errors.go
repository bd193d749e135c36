package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable classification of engine errors. Codes
// map one-to-one to HTTP statuses at the API boundary.
type Code int

const (
	CodeValidation Code = iota + 1
	CodeConfiguration
	CodeProvider
	CodeAuth
	CodePolicy
	CodeNotFound
	CodeConflict
	CodeRateLimit
	CodeInternal
)

func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeConfiguration:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodePolicy:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code alongside the message so handlers can translate
// failures without string matching.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// AsError extracts a typed engine error, if any.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ErrUnsupportedChain is returned by a provider adapter when it does not
// serve the requested chain. The aggregator drops these silently instead of
// surfacing them as provider failures.
var ErrUnsupportedChain = errors.New("chain not supported by provider")
