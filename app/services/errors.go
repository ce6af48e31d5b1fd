package services

import (
	"errors"
	"fmt"
)

// ErrorKind phân loại lỗi trả về cho client
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindBackingStoreUnavailable
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindBackingStoreUnavailable:
		return "backing_store_unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

// Thông điệp cố định cho các lỗi 500
const (
	MsgTimeout    = "location store timed out"
	MsgUnexpected = "internal error"
	hintStore     = "the location store is not configured or unreachable; check store.driver and its connection settings"
)

// ResolveError lỗi có kind, controller map kind sang HTTP status
type ResolveError struct {
	Kind    ErrorKind
	Message string
	Details string
	Err     error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// KindOf trả về kind của err, lỗi không có kind được coi là Unexpected
func KindOf(err error) ErrorKind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnexpected
}

func invalidInput(msg string) error {
	return &ResolveError{Kind: KindInvalidInput, Message: msg}
}

func notFound(format string, args ...interface{}) error {
	return &ResolveError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func storeUnavailable(err error) error {
	return &ResolveError{Kind: KindBackingStoreUnavailable, Message: "location store unavailable", Details: hintStore, Err: err}
}

func timedOut(err error) error {
	return &ResolveError{Kind: KindTimeout, Message: MsgTimeout, Err: err}
}

func unexpected(err error) error {
	return &ResolveError{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}
