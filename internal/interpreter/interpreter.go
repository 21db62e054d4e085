// Package interpreter evaluates While ASTs by walking the tree.
package interpreter

import (
	"fmt"

	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/types"
)

// Interpreter evaluates one AST against its own Context. It never modifies
// the AST.
//
// A program whose loop never terminates makes Interpret run forever: there is
// no cancellation.
type Interpreter struct {
	root  ast.Node
	ctx   *Context
	depth int
}

// MaxDefinitionDepth bounds how many definition runs may be nested, so a
// definition that runs itself fails instead of exhausting the stack.
const MaxDefinitionDepth = 10000

func New(root ast.Node) *Interpreter {
	return &Interpreter{root: root, ctx: NewContext()}
}

// Interpret evaluates the program and returns the final state. On failure
// the effects committed before the fault stay visible through State.
func (i *Interpreter) Interpret() (*State, error) {
	if _, err := i.evaluate(i.root); err != nil {
		return nil, err
	}
	return i.ctx.State.Clone(), nil
}

func (i *Interpreter) State() *State {
	return i.ctx.State.Clone()
}

func (i *Interpreter) evaluate(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return Integer(n.Value), nil

	case *ast.Ident:
		return Integer(i.ctx.Variable(n.Name)), nil

	case *ast.True:
		return Boolean(true), nil

	case *ast.False:
		return Boolean(false), nil

	case *ast.Not:
		v, err := i.evaluate(n.Expr)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case Boolean:
			return !v, nil
		case Integer:
			return nil, typeError("cannot negate arithmetic")
		default:
			return nil, typeError("cannot negate statement")
		}

	case *ast.Eq:
		left, err := i.evaluate(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.evaluate(n.Right)
		if err != nil {
			return nil, err
		}

		switch lhs := left.(type) {
		case Integer:
			switch rhs := right.(type) {
			case Integer:
				return Boolean(lhs == rhs), nil
			case Boolean:
				return nil, typeError("cannot evaluate Arith = Bool")
			}
		case Boolean:
			switch rhs := right.(type) {
			case Boolean:
				return Boolean(lhs == rhs), nil
			case Integer:
				return nil, typeError("cannot evaluate Bool = Arith")
			}
		}
		return nil, typeError("cannot compare %s with %s", left, right)

	case *ast.LessEq:
		lhs, rhs, err := i.arithmeticOperands(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return Boolean(lhs <= rhs), nil

	case *ast.And:
		lhs, err := i.boolean(n.Left, "LHS")
		if err != nil {
			return nil, err
		}
		rhs, err := i.boolean(n.Right, "RHS")
		if err != nil {
			return nil, err
		}
		return lhs && rhs, nil

	case *ast.Add:
		lhs, rhs, err := i.arithmeticOperands(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return lhs + rhs, nil

	case *ast.Sub:
		lhs, rhs, err := i.arithmeticOperands(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return lhs - rhs, nil

	case *ast.Mul:
		lhs, rhs, err := i.arithmeticOperands(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return lhs * rhs, nil

	case *ast.Skip:
		return Unit{}, nil

	case *ast.Ass:
		if def, ok := n.Value.(ast.Stmt); ok {
			i.ctx.AddDefinition(n.Ident, def)
			return Unit{}, nil
		}

		v, err := i.evaluate(n.Value)
		if err != nil {
			return nil, err
		}
		x, ok := v.(Integer)
		if !ok {
			return nil, typeError("bad RHS of assignment to %s: %s expression %s is not arithmetic", n.Ident, ast.Kind(n.Value), ast.Render(n.Value))
		}
		i.ctx.SetVariable(n.Ident, int32(x))
		return Unit{}, nil

	case *ast.DefinitionRun:
		def, ok := i.ctx.Definition(n.Ident)
		if !ok {
			return nil, &InterpretError{
				Tag: types.KeyErrorTag,
				Err: fmt.Errorf("undefined definition: %s", n.Ident),
			}
		}
		if i.depth >= MaxDefinitionDepth {
			return nil, &InterpretError{
				Tag: types.RecursionErrorTag,
				Err: fmt.Errorf("maximum definition depth %d exceeded running %s", MaxDefinitionDepth, n.Ident),
			}
		}
		i.depth++
		v, err := i.evaluate(def)
		i.depth--
		return v, err

	case *ast.Comp:
		if _, err := i.evaluate(n.First); err != nil {
			return nil, err
		}
		if _, err := i.evaluate(n.Second); err != nil {
			return nil, err
		}
		return Unit{}, nil

	case *ast.If:
		cond, err := i.condition(n.Cond)
		if err != nil {
			return nil, err
		}
		if cond {
			return i.evaluate(n.TruePath)
		}
		return i.evaluate(n.FalsePath)

	case *ast.While:
		for {
			cond, err := i.condition(n.Cond)
			if err != nil {
				return nil, err
			}
			if !cond {
				return Unit{}, nil
			}
			if _, err := i.evaluate(n.Body); err != nil {
				return nil, err
			}
		}

	default:
		panic(fmt.Sprintf("should not reach here: unknown node %s", ast.Kind(node)))
	}
}

func (i *Interpreter) arithmeticOperands(left, right ast.Expr) (Integer, Integer, error) {
	lhs, err := i.arithmetic(left, "LHS")
	if err != nil {
		return 0, 0, err
	}
	rhs, err := i.arithmetic(right, "RHS")
	if err != nil {
		return 0, 0, err
	}
	return lhs, rhs, nil
}

func (i *Interpreter) arithmetic(expr ast.Expr, side string) (Integer, error) {
	v, err := i.evaluate(expr)
	if err != nil {
		return 0, err
	}
	x, ok := v.(Integer)
	if !ok {
		return 0, typeError("%s is not arithmetic: got %s", side, v)
	}
	return x, nil
}

func (i *Interpreter) boolean(expr ast.Expr, side string) (Boolean, error) {
	v, err := i.evaluate(expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(Boolean)
	if !ok {
		return false, typeError("%s is not boolean: got %s", side, v)
	}
	return b, nil
}

func (i *Interpreter) condition(expr ast.Expr) (bool, error) {
	v, err := i.evaluate(expr)
	if err != nil {
		return false, err
	}
	switch v := v.(type) {
	case Boolean:
		return bool(v), nil
	case Integer:
		return false, typeError("arithmetic conditional not allowed")
	default:
		return false, typeError("statement conditional not allowed")
	}
}
