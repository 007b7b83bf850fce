package valuation

import (
	"errors"
	"fmt"
)

// Kind classifies a valuation failure.
type Kind string

const (
	KindTickerNotFound    Kind = "TickerNotFound"
	KindDataUnavailable   Kind = "DataUnavailable"
	KindInvalidAssumption Kind = "InvalidAssumption"
	KindDivisionByZero    Kind = "DivisionByZero"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrTickerNotFound    = &Error{Kind: KindTickerNotFound}
	ErrDataUnavailable   = &Error{Kind: KindDataUnavailable}
	ErrInvalidAssumption = &Error{Kind: KindInvalidAssumption}
	ErrDivisionByZero    = &Error{Kind: KindDivisionByZero}
)

// Error is the structured failure returned by Calculate.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" when err is not a valuation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
