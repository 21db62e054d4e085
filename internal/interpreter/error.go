package interpreter

import (
	"fmt"
	"strings"

	"github.com/karupanerura/while-tools/internal/types"
)

// InterpretError reports a run-time fault: a value of the wrong type at an
// operator or conditional, an undefined definition, or definition runs nested
// deeper than MaxDefinitionDepth.
type InterpretError struct {
	Tag types.ErrorTag
	Err error
}

var _ types.Exception = (*InterpretError)(nil)

func typeError(format string, args ...any) *InterpretError {
	return &InterpretError{Tag: types.TypeErrorTag, Err: fmt.Errorf(format, args...)}
}

func (e *InterpretError) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *InterpretError) Unwrap() error {
	return e.Err
}

func (e *InterpretError) Exception() any {
	var message string
	if e.Err != nil {
		message = e.Err.Error()
	}
	return types.ExceptionPayload(message, nil, e.Tag)
}
