package lexer

import (
	"fmt"

	"github.com/samber/lo"
)

// Token identifies a lexical category. Tokens carry no payload: the text they
// denote is recovered from the source by their span.
type Token int

const (
	Unknown Token = iota

	// groupings
	LeftParen
	RightParen
	LeftSemantic
	RightSemantic

	// arithmetic operators
	Add
	Subtract
	Multiply

	// literals
	Literal
	Identifier
	True
	False

	// comparison, equality and logic
	Equal
	NotEqual
	LessEqual
	LessThan
	GreaterEqual
	GreaterThan
	Not
	And

	// statements
	Assign
	If
	Then
	Else
	While
	Do
	Skip

	// separators
	Whitespace
	LineBreak
	Semicolon
)

var keywordTokens = map[string]Token{
	"if":    If,
	"then":  Then,
	"else":  Else,
	"while": While,
	"do":    Do,
	"skip":  Skip,
	"true":  True,
	"false": False,
}

var keywordNames = lo.Invert(keywordTokens)

var symbolNames = map[Token]string{
	LeftParen:     "(",
	RightParen:    ")",
	LeftSemantic:  "[[",
	RightSemantic: "]]",
	Add:           "+",
	Subtract:      "-",
	Multiply:      "*",
	Equal:         "=",
	NotEqual:      "!=",
	LessEqual:     "<=",
	LessThan:      "<",
	GreaterEqual:  ">=",
	GreaterThan:   ">",
	Not:           "!",
	And:           "&",
	Assign:        ":=",
	Semicolon:     ";",
}

func (t Token) String() string {
	if kw, ok := keywordNames[t]; ok {
		return fmt.Sprintf("%q", kw)
	}
	if sym, ok := symbolNames[t]; ok {
		return fmt.Sprintf("%q", sym)
	}

	switch t {
	case Literal:
		return "literal"
	case Identifier:
		return "identifier"
	case Whitespace:
		return "whitespace"
	case LineBreak:
		return "line break"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Token(%d)", int(t))
	}
}

// LookupKeyword returns the keyword token for word, or Identifier.
func LookupKeyword(word string) Token {
	if tok, ok := keywordTokens[word]; ok {
		return tok
	}
	return Identifier
}
