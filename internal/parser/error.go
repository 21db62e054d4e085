package parser

import (
	"fmt"

	"github.com/karupanerura/while-tools/internal/lexer"
	"github.com/karupanerura/while-tools/internal/types"
)

// ParseError reports an unexpected token, a malformed literal or a premature
// end of the token stream.
type ParseError struct {
	Message string
	Span    lexer.Span
}

var _ types.Exception = (*ParseError)(nil)

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing error: %s (at %s)", e.Message, e.Span)
}

func (e *ParseError) ErrorSpan() (start, end int) {
	return e.Span.Start, e.Span.End
}

func (e *ParseError) Exception() any {
	return types.ExceptionPayload(e.Message, map[string]any{
		"span": []int{e.Span.Start, e.Span.End},
	}, types.ParseErrorTag)
}
