// Package lexer turns While source text into a pull-based stream of spanned
// tokens. It has no knowledge of the grammar.
package lexer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type Lexer struct {
	source io.RuneReader
	index  int

	peeked     rune
	peekedSize int
	hasPeeked  bool
	readErr    error
}

func New(source string) *Lexer {
	return NewReader(strings.NewReader(source))
}

func NewReader(r io.RuneReader) *Lexer {
	return &Lexer{source: r}
}

func (l *Lexer) peek() (rune, bool) {
	if l.hasPeeked {
		return l.peeked, true
	}
	if l.readErr != nil {
		return 0, false
	}

	c, size, err := l.source.ReadRune()
	if err != nil {
		l.readErr = err
		return 0, false
	}
	l.peeked, l.peekedSize, l.hasPeeked = c, size, true
	return c, true
}

func (l *Lexer) advance() (rune, bool) {
	c, ok := l.peek()
	if !ok {
		return 0, false
	}
	l.hasPeeked = false
	l.index += l.peekedSize
	return c, true
}

// advanceIf consumes the next character when it equals want.
func (l *Lexer) advanceIf(want rune) bool {
	if c, ok := l.peek(); ok && c == want {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) advanceWhile(pred func(rune) bool) {
	for {
		c, ok := l.peek()
		if !ok || !pred(c) {
			return
		}
		l.advance()
	}
}

// Next returns the next token. An unrecognized character is reported as a
// *LexError covering that character, and lexing can continue after it.
// io.EOF is returned once the source is exhausted.
func (l *Lexer) Next() (Spanned[Token], error) {
	start := l.index
	c, ok := l.advance()
	if !ok {
		if errors.Is(l.readErr, io.EOF) {
			return Spanned[Token]{}, io.EOF
		}
		return Spanned[Token]{}, fmt.Errorf("read source at %d: %w", l.index, l.readErr)
	}

	var tok Token
	switch c {
	case '(':
		tok = LeftParen
	case ')':
		tok = RightParen
	case '+':
		tok = Add
	case '-':
		tok = Subtract
	case '*':
		tok = Multiply
	case '=':
		tok = Equal
	case '&':
		tok = And
	case '[':
		if l.advanceIf('[') {
			tok = LeftSemantic
		} else {
			tok = Unknown
		}
	case ']':
		if l.advanceIf(']') {
			tok = RightSemantic
		} else {
			tok = Unknown
		}
	case '!':
		if l.advanceIf('=') {
			tok = NotEqual
		} else {
			tok = Not
		}
	case '<':
		if l.advanceIf('=') {
			tok = LessEqual
		} else {
			tok = LessThan
		}
	case '>':
		if l.advanceIf('=') {
			tok = GreaterEqual
		} else {
			tok = GreaterThan
		}
	case ':':
		if l.advanceIf('=') {
			tok = Assign
		} else {
			tok = Unknown
		}
	case ' ', '\t':
		l.advanceWhile(isBlank)
		tok = Whitespace
	case '\n', '\r', ';':
		// a separator absorbs the line breaks that follow it
		l.advanceWhile(isLineBreak)
		tok = Semicolon
	default:
		switch {
		case isDigit(c):
			l.advanceWhile(isDigit)
			tok = Literal
		case isLetter(c):
			var word strings.Builder
			word.WriteRune(c)
			for {
				next, ok := l.peek()
				if !ok || !(unicode.IsLetter(next) || unicode.IsDigit(next)) {
					break
				}
				l.advance()
				word.WriteRune(next)
			}
			tok = LookupKeyword(word.String())
		default:
			tok = Unknown
		}
	}

	spanned := Spanned[Token]{Inner: tok, Span: Span{Start: start, End: l.index}}
	if tok == Unknown {
		return spanned, &LexError{
			Message: fmt.Sprintf("unknown token %q", c),
			Span:    spanned.Span,
		}
	}
	return spanned, nil
}

func isBlank(c rune) bool {
	return c == ' ' || c == '\t'
}

func isLineBreak(c rune) bool {
	return c == '\n' || c == '\r'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c rune) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Tokenize lexes the whole source, failing on the first LexError.
func Tokenize(source string) ([]Spanned[Token], error) {
	l := New(source)

	var tokens []Spanned[Token]
	for {
		tok, err := l.Next()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		} else if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

// Replayer streams an already collected token slice.
type Replayer struct {
	tokens []Spanned[Token]
	index  int
}

func Replay(tokens []Spanned[Token]) *Replayer {
	return &Replayer{tokens: tokens}
}

func (r *Replayer) Next() (Spanned[Token], error) {
	if r.index == len(r.tokens) {
		return Spanned[Token]{}, io.EOF
	}
	tok := r.tokens[r.index]
	r.index++
	return tok, nil
}
