package parser

import (
	"fmt"
	"strconv"

	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/lexer"
)

// <expression> ::= <logical>
func (p *Parser) expression() (ast.Expr, error) {
	return p.logical()
}

// <logical> ::= <equality> ( "&" <equality> )*
func (p *Parser) logical() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := p.check(lexer.And)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}

		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.And{Left: expr, Right: rhs}
	}
}

// <equality> ::= <comparison> ( ( "=" | "!=" ) <comparison> )?
func (p *Parser) equality() (ast.Expr, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}

	if ok, err := p.check(lexer.Equal, lexer.NotEqual); err != nil || !ok {
		return expr, err
	}
	operator, err := p.advance()
	if err != nil {
		return nil, err
	}
	rhs, err := p.comparison()
	if err != nil {
		return nil, err
	}

	switch operator.Inner {
	case lexer.Equal:
		return &ast.Eq{Left: expr, Right: rhs}, nil
	case lexer.NotEqual:
		return &ast.Not{Expr: &ast.Eq{Left: expr, Right: rhs}}, nil
	default:
		panic(fmt.Sprintf("should not reach here: operator=%s", operator.Inner))
	}
}

// <comparison> ::= <term> ( ( "<=" | "<" | ">" | ">=" ) <term> )?
func (p *Parser) comparison() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}

	ok, err := p.check(lexer.LessEqual, lexer.LessThan, lexer.GreaterEqual, lexer.GreaterThan)
	if err != nil || !ok {
		return expr, err
	}
	operator, err := p.advance()
	if err != nil {
		return nil, err
	}
	rhs, err := p.term()
	if err != nil {
		return nil, err
	}

	switch operator.Inner {
	case lexer.LessEqual:
		return &ast.LessEq{Left: expr, Right: rhs}, nil
	case lexer.LessThan: // a < b == !(b <= a)
		return &ast.Not{Expr: &ast.LessEq{Left: rhs, Right: expr}}, nil
	case lexer.GreaterEqual: // a >= b == b <= a
		return &ast.LessEq{Left: rhs, Right: expr}, nil
	case lexer.GreaterThan: // a > b == !(a <= b)
		return &ast.Not{Expr: &ast.LessEq{Left: expr, Right: rhs}}, nil
	default:
		panic(fmt.Sprintf("should not reach here: operator=%s", operator.Inner))
	}
}

// <term> ::= <factor> ( ( "+" | "-" ) <factor> )*
func (p *Parser) term() (ast.Expr, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := p.check(lexer.Add, lexer.Subtract)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		operator, err := p.advance()
		if err != nil {
			return nil, err
		}

		rhs, err := p.factor()
		if err != nil {
			return nil, err
		}
		if operator.Inner == lexer.Add {
			expr = &ast.Add{Left: expr, Right: rhs}
		} else {
			expr = &ast.Sub{Left: expr, Right: rhs}
		}
	}
}

// <factor> ::= <unary> ( "*" <unary> )*
func (p *Parser) factor() (ast.Expr, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := p.check(lexer.Multiply)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}

		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Mul{Left: expr, Right: rhs}
	}
}

// <unary> ::= ( "!" | "-" ) <unary> | <primary>
func (p *Parser) unary() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok != nil {
		leave, err := p.nest(tok)
		if err != nil {
			return nil, err
		}
		defer leave()
	}

	ok, err := p.check(lexer.Subtract, lexer.Not)
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.primary()
	}

	operator, err := p.advance()
	if err != nil {
		return nil, err
	}
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}

	if operator.Inner == lexer.Subtract {
		return &ast.Sub{Left: &ast.Literal{Value: 0}, Right: operand}, nil
	}
	return &ast.Not{Expr: operand}, nil
}

// <primary> ::= <ident> | <literal> | "true" | "false" | "(" <expression> ")"
func (p *Parser) primary() (ast.Expr, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, p.endOfStreamError("expected an expression, but reached end of token stream")
	}

	switch tok.Inner {
	case lexer.LeftParen:
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case lexer.True:
		return &ast.True{}, nil

	case lexer.False:
		return &ast.False{}, nil

	case lexer.Identifier:
		return &ast.Ident{Name: p.text(tok.Span)}, nil

	case lexer.Literal:
		s := p.text(tok.Span)
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, &ParseError{
				Message: fmt.Sprintf("invalid integer literal %s: %v", s, err),
				Span:    tok.Span,
			}
		}
		return &ast.Literal{Value: int32(v)}, nil

	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("unexpected %s at the primary parsing stage", tok.Inner),
			Span:    tok.Span,
		}
	}
}
