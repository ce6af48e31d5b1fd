package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies provider failures.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeRateLimit
	ErrorTypeUpstream
	ErrorTypeTransport
	ErrorTypeDecode
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeUpstream:
		return "upstream"
	case ErrorTypeTransport:
		return "transport"
	case ErrorTypeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a typed provider failure. It never escapes the chain.
type Error struct {
	Provider string
	Type     ErrorType
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// ClassifyHTTPError maps a non-2xx status to a typed error.
func ClassifyHTTPError(provider string, status int) error {
	e := &Error{Provider: provider, Message: fmt.Sprintf("HTTP %d", status)}
	switch {
	case status == http.StatusNotFound:
		e.Type = ErrorTypeNotFound
	case status == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case status >= 500:
		e.Type = ErrorTypeUpstream
	default:
		e.Type = ErrorTypeUnknown
	}
	return e
}

func transportError(provider string, err error) error {
	return &Error{Provider: provider, Type: ErrorTypeTransport, Message: "request failed", Err: err}
}

func decodeError(provider string, err error) error {
	return &Error{Provider: provider, Type: ErrorTypeDecode, Message: "decoding response", Err: err}
}
