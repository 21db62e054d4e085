package lexer

import (
	"fmt"

	"github.com/karupanerura/while-tools/internal/types"
)

// Span is a half-open byte range [Start, End) into the source.
type Span struct {
	Start, End int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Slice returns the part of source covered by the span, clamped to the
// source bounds.
func (s Span) Slice(source string) string {
	start, end := s.Start, s.End
	if start > len(source) {
		start = len(source)
	}
	if end > len(source) {
		end = len(source)
	}
	if start < 0 || end < start {
		return ""
	}
	return source[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

type Spanned[T any] struct {
	Inner T
	Span  Span
}

// LexError reports a character that does not start any token.
type LexError struct {
	Message string
	Span    Span
}

var _ types.Exception = (*LexError)(nil)

func (e *LexError) Error() string {
	return fmt.Sprintf("lexing error: %s (at %s)", e.Message, e.Span)
}

func (e *LexError) ErrorSpan() (start, end int) {
	return e.Span.Start, e.Span.End
}

func (e *LexError) Exception() any {
	return types.ExceptionPayload(e.Message, map[string]any{
		"span": []int{e.Span.Start, e.Span.End},
	}, types.LexErrorTag)
}
