package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidArgument
	KindEmptyCart
	KindInvalidTransition
	KindReturnWindowExpired
	KindAlreadyExists
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindEmptyCart:
		return "empty_cart"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindReturnWindowExpired:
		return "return_window_expired"
	case KindAlreadyExists:
		return "already_exists"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a stable Kind for callers and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return Newf(KindInvalidArgument, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return Newf(KindInvalidTransition, format, args...)
}
