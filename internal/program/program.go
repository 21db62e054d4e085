// Package program compiles While sources into runnable programs and loads
// program manifests.
package program

import (
	"fmt"

	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/interpreter"
	"github.com/karupanerura/while-tools/internal/lexer"
	"github.com/karupanerura/while-tools/internal/parser"
	"github.com/karupanerura/while-tools/internal/source"
	"github.com/karupanerura/while-tools/internal/types"
)

type Program struct {
	Name   string
	Source string
	root   ast.Stmt
}

// Compile lexes the whole source before parsing it, so the first lexing
// error wins over any parse error.
func Compile(name, src string) (*Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, &CompileError{Name: name, Source: src, Err: err}
	}

	root, err := parser.New(src, lexer.Replay(tokens)).Parse()
	if err != nil {
		return nil, &CompileError{Name: name, Source: src, Err: err}
	}

	return &Program{Name: name, Source: src, root: root}, nil
}

func (p *Program) AST() ast.Stmt {
	return p.root
}

// Execute interprets the program against a fresh context.
func (p *Program) Execute() (*interpreter.State, error) {
	return interpreter.New(p.root).Interpret()
}

// CompileError is a lexing or parsing failure together with the source it
// happened in.
type CompileError struct {
	Name   string
	Source string
	Err    error
}

var _ types.Exception = (*CompileError)(nil)

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

func (e *CompileError) Exception() any {
	return types.AsException(e.Err).Exception()
}

// Describe renders the failure with an annotated excerpt of the source.
func (e *CompileError) Describe() string {
	return e.Name + ": " + source.NewNavigator(e.Source).Describe(e.Err)
}
