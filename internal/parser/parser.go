// Package parser builds a While AST from a token stream by recursive descent.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/lexer"
)

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("WHILE_PARSER_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

// TokenStream yields tokens until io.EOF. *lexer.Lexer and *lexer.Replayer
// both satisfy it.
type TokenStream interface {
	Next() (lexer.Spanned[lexer.Token], error)
}

// Parser keeps the source to slice identifier and literal text out of token
// spans, and looks one token ahead.
type Parser struct {
	source string
	tokens TokenStream
	debug  bool

	lookahead *lexer.Spanned[lexer.Token]
	exhausted bool
	depth     int
}

// MaxNestingDepth bounds how deeply statements and expressions may nest.
const MaxNestingDepth = 1000

// nest enters one nesting level at tok. The returned func leaves it.
func (p *Parser) nest(tok *lexer.Spanned[lexer.Token]) (func(), error) {
	if p.depth >= MaxNestingDepth {
		return nil, &ParseError{
			Message: fmt.Sprintf("nesting deeper than %d levels", MaxNestingDepth),
			Span:    tok.Span,
		}
	}
	p.depth++
	return func() { p.depth-- }, nil
}

func New(source string, tokens TokenStream) *Parser {
	return &Parser{source: source, tokens: tokens, debug: parserDebugLog}
}

// ParseString lexes and parses source in one pass.
func ParseString(source string) (ast.Stmt, error) {
	return New(source, lexer.New(source)).Parse()
}

func (p *Parser) Parse() (ast.Stmt, error) {
	stmt, err := p.stmtBlock()
	if err != nil {
		return nil, err
	}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok != nil {
		if p.debug {
			log.Println("not consumed token: ", tok.Inner, p.text(tok.Span))
		}
		return nil, &ParseError{
			Message: fmt.Sprintf("unexpected %s after the end of the program", tok.Inner),
			Span:    tok.Span,
		}
	}

	if p.debug {
		pp.Println(p.source)
		pp.Println(stmt)
		log.Println(ast.Kind(stmt), ast.Render(stmt))
	}
	return stmt, nil
}

// peek returns the next significant token without consuming it, or nil at
// the end of the stream. Whitespace and line breaks are skipped.
func (p *Parser) peek() (*lexer.Spanned[lexer.Token], error) {
	for p.lookahead == nil && !p.exhausted {
		tok, err := p.tokens.Next()
		if errors.Is(err, io.EOF) {
			p.exhausted = true
			break
		} else if err != nil {
			return nil, err
		}

		switch tok.Inner {
		case lexer.Whitespace, lexer.LineBreak:
			continue
		}
		p.lookahead = &tok
	}
	return p.lookahead, nil
}

func (p *Parser) advance() (*lexer.Spanned[lexer.Token], error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	p.lookahead = nil
	return tok, nil
}

// check reports whether the next token is one of kinds.
func (p *Parser) check(kinds ...lexer.Token) (bool, error) {
	tok, err := p.peek()
	if err != nil || tok == nil {
		return false, err
	}
	for _, kind := range kinds {
		if tok.Inner == kind {
			return true, nil
		}
	}
	return false, nil
}

func (p *Parser) expect(kind lexer.Token) (*lexer.Spanned[lexer.Token], error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, p.endOfStreamError(fmt.Sprintf("expected %s, but reached end of token stream", kind))
	}
	if tok.Inner != kind {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected %s, found %s", kind, tok.Inner),
			Span:    tok.Span,
		}
	}
	return tok, nil
}

// skipSemicolons consumes a run of separators and reports whether any were
// found.
func (p *Parser) skipSemicolons() (bool, error) {
	found := false
	for {
		ok, err := p.check(lexer.Semicolon)
		if err != nil {
			return false, err
		}
		if !ok {
			return found, nil
		}
		found = true
		if _, err := p.advance(); err != nil {
			return false, err
		}
	}
}

func (p *Parser) atBlockEnd() (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok == nil {
		return true, nil
	}
	switch tok.Inner {
	case lexer.RightParen, lexer.RightSemantic, lexer.Else:
		return true, nil
	default:
		return false, nil
	}
}

// <stmt_block> ::= ";"* <statement> (";" <statement>)* ";"?
func (p *Parser) stmtBlock() (ast.Stmt, error) {
	if _, err := p.skipSemicolons(); err != nil {
		return nil, err
	}

	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}

	for {
		separated, err := p.skipSemicolons()
		if err != nil {
			return nil, err
		}
		if !separated {
			return stmt, nil
		}

		end, err := p.atBlockEnd()
		if err != nil {
			return nil, err
		}
		if end {
			return stmt, nil
		}

		next, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmt = &ast.Comp{First: stmt, Second: next}
	}
}

// <statement> ::= <if_stmt> | <while_stmt> | <ass_stmt> | <run_stmt>
//
//	| <skip_stmt> | "(" <stmt_block> ")"
func (p *Parser) statement() (ast.Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, p.endOfStreamError("unexpected end of token stream, expected a statement")
	}

	leave, err := p.nest(tok)
	if err != nil {
		return nil, err
	}
	defer leave()

	switch tok.Inner {
	case lexer.If:
		return p.ifStmt()
	case lexer.While:
		return p.whileStmt()
	case lexer.Identifier:
		return p.identStmt()
	case lexer.Skip:
		return p.skipStmt()
	case lexer.LeftParen:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		block, err := p.stmtBlock()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightParen); err != nil {
			return nil, err
		}
		return block, nil
	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("expected a statement, found %s", tok.Inner),
			Span:    tok.Span,
		}
	}
}

// <if_stmt> ::= "if" <expression> "then" <stmt_block> "else" <stmt_block>
func (p *Parser) ifStmt() (ast.Stmt, error) {
	if _, err := p.expect(lexer.If); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Then); err != nil {
		return nil, err
	}
	truePath, err := p.stmtBlock()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Else); err != nil {
		return nil, err
	}
	falsePath, err := p.stmtBlock()
	if err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, TruePath: truePath, FalsePath: falsePath}, nil
}

// <while_stmt> ::= "while" <expression> "do"? <stmt_block>
func (p *Parser) whileStmt() (ast.Stmt, error) {
	if _, err := p.expect(lexer.While); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	if ok, err := p.check(lexer.Do); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
	}

	body, err := p.stmtBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

// <ass_stmt> ::= <ident> ":=" (<expression> | <definition>)
// <run_stmt> ::= <ident>
func (p *Parser) identStmt() (ast.Stmt, error) {
	tok, err := p.expect(lexer.Identifier)
	if err != nil {
		return nil, err
	}
	ident := p.text(tok.Span)

	if ok, err := p.check(lexer.Assign); err != nil {
		return nil, err
	} else if !ok {
		return &ast.DefinitionRun{Ident: ident}, nil
	}
	if _, err := p.advance(); err != nil {
		return nil, err
	}

	value, err := p.assignedValue()
	if err != nil {
		return nil, err
	}
	return &ast.Ass{Ident: ident, Value: value}, nil
}

// <definition> ::= <if_stmt> | <while_stmt> | <skip_stmt> | "[[" <stmt_block> "]]"
func (p *Parser) assignedValue() (ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, p.endOfStreamError("expected the right hand side of an assignment, but reached end of token stream")
	}

	switch tok.Inner {
	case lexer.If:
		return p.ifStmt()
	case lexer.While:
		return p.whileStmt()
	case lexer.Skip:
		return p.skipStmt()
	case lexer.LeftSemantic:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		block, err := p.stmtBlock()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightSemantic); err != nil {
			return nil, err
		}
		return block, nil
	default:
		return p.expression()
	}
}

// <skip_stmt> ::= "skip"
func (p *Parser) skipStmt() (ast.Stmt, error) {
	if _, err := p.expect(lexer.Skip); err != nil {
		return nil, err
	}
	return &ast.Skip{}, nil
}

func (p *Parser) text(span lexer.Span) string {
	return span.Slice(p.source)
}

func (p *Parser) endOfStreamError(message string) *ParseError {
	return &ParseError{
		Message: message,
		Span:    lexer.Span{Start: len(p.source), End: len(p.source) + 1},
	}
}
