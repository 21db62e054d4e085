package types

import (
	"errors"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	LexErrorTag       ErrorTag = "LexError"
	ParseErrorTag     ErrorTag = "ParseError"
	KeyErrorTag       ErrorTag = "KeyError"
	RecursionErrorTag ErrorTag = "RecursionError"
	TypeErrorTag      ErrorTag = "TypeError"
	ValueErrorTag     ErrorTag = "ValueError"
)

// Exception is an error that can be dumped as a JSON-ready payload.
type Exception interface {
	error
	Exception() any
}

type stringException string

func (s stringException) Error() string {
	return string(s)
}

func (s stringException) Exception() any {
	return string(s)
}

func NewExceptionByString(s string) Exception {
	return stringException(s)
}

// AsException returns err as an Exception, falling back to its message.
func AsException(err error) Exception {
	var exception Exception
	if errors.As(err, &exception) {
		return exception
	}
	return NewExceptionByString(err.Error())
}

// ExceptionPayload builds the payload shared by every tagged error.
func ExceptionPayload(message string, extra map[string]any, tags ...ErrorTag) map[string]any {
	o := map[string]any{
		"tags":    tags,
		"message": message,
	}
	if len(extra) != 0 {
		o = lo.Assign(o, extra)
	}
	return o
}
