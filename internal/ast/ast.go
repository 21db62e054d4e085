// Package ast defines the abstract syntax tree of While programs.
//
// Nodes are pure data. Positions are discarded after parsing, and every
// compound node exclusively owns its children.
package ast

import (
	"strconv"
	"strings"

	reflect "github.com/goccy/go-reflect"
)

type Node interface {
	node()
}

// Expr is a node that evaluates to a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node that is executed for its effects.
type Stmt interface {
	Node
	stmtNode()
}

type True struct{}

type False struct{}

type Literal struct {
	Value int32
}

type Ident struct {
	Name string
}

type Not struct {
	Expr Expr
}

type Eq struct {
	Left, Right Expr
}

type LessEq struct {
	Left, Right Expr
}

type And struct {
	Left, Right Expr
}

type Add struct {
	Left, Right Expr
}

type Sub struct {
	Left, Right Expr
}

type Mul struct {
	Left, Right Expr
}

type Skip struct{}

// Ass binds Value to Ident. An Expr value is evaluated and stored in the
// state; a Stmt value is stored as a definition for a later DefinitionRun.
type Ass struct {
	Ident string
	Value Node
}

type Comp struct {
	First, Second Stmt
}

type If struct {
	Cond      Expr
	TruePath  Stmt
	FalsePath Stmt
}

type While struct {
	Cond Expr
	Body Stmt
}

// DefinitionRun executes the statement previously bound to Ident.
type DefinitionRun struct {
	Ident string
}

func (*True) node()          {}
func (*False) node()         {}
func (*Literal) node()       {}
func (*Ident) node()         {}
func (*Not) node()           {}
func (*Eq) node()            {}
func (*LessEq) node()        {}
func (*And) node()           {}
func (*Add) node()           {}
func (*Sub) node()           {}
func (*Mul) node()           {}
func (*Skip) node()          {}
func (*Ass) node()           {}
func (*Comp) node()          {}
func (*If) node()            {}
func (*While) node()         {}
func (*DefinitionRun) node() {}

func (*True) exprNode()    {}
func (*False) exprNode()   {}
func (*Literal) exprNode() {}
func (*Ident) exprNode()   {}
func (*Not) exprNode()     {}
func (*Eq) exprNode()      {}
func (*LessEq) exprNode()  {}
func (*And) exprNode()     {}
func (*Add) exprNode()     {}
func (*Sub) exprNode()     {}
func (*Mul) exprNode()     {}

func (*Skip) stmtNode()          {}
func (*Ass) stmtNode()           {}
func (*Comp) stmtNode()          {}
func (*If) stmtNode()            {}
func (*While) stmtNode()         {}
func (*DefinitionRun) stmtNode() {}

// Kind returns the variant name of the node, e.g. "LessEq".
func Kind(n Node) string {
	if n == nil {
		return "nil"
	}
	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Sequence composes statements left to right into nested Comp nodes.
func Sequence(first Stmt, rest ...Stmt) Stmt {
	stmt := first
	for _, next := range rest {
		stmt = &Comp{First: stmt, Second: next}
	}
	return stmt
}

// Render renders the tree as an S-expression.
func Render(n Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case nil:
		b.WriteString("nil")
	case *True:
		b.WriteString("true")
	case *False:
		b.WriteString("false")
	case *Skip:
		b.WriteString("skip")
	case *Literal:
		b.WriteString(strconv.FormatInt(int64(v.Value), 10))
	case *Ident:
		b.WriteString(v.Name)
	case *DefinitionRun:
		renderList(b, "run", &Ident{Name: v.Ident})
	case *Not:
		renderList(b, "!", v.Expr)
	case *Eq:
		renderList(b, "=", v.Left, v.Right)
	case *LessEq:
		renderList(b, "<=", v.Left, v.Right)
	case *And:
		renderList(b, "&", v.Left, v.Right)
	case *Add:
		renderList(b, "+", v.Left, v.Right)
	case *Sub:
		renderList(b, "-", v.Left, v.Right)
	case *Mul:
		renderList(b, "*", v.Left, v.Right)
	case *Ass:
		renderList(b, ":=", &Ident{Name: v.Ident}, v.Value)
	case *Comp:
		renderList(b, ";", v.First, v.Second)
	case *If:
		renderList(b, "if", v.Cond, v.TruePath, v.FalsePath)
	case *While:
		renderList(b, "while", v.Cond, v.Body)
	default:
		b.WriteString("?" + Kind(n))
	}
}

func renderList(b *strings.Builder, head string, children ...Node) {
	b.WriteByte('(')
	b.WriteString(head)
	for _, child := range children {
		b.WriteByte(' ')
		render(b, child)
	}
	b.WriteByte(')')
}
