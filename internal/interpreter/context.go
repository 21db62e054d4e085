package interpreter

import "github.com/karupanerura/while-tools/internal/ast"

// Context is the interpreter-private environment: the observable State plus
// the statements bound to names by definition assignments.
type Context struct {
	State       *State
	definitions map[string]ast.Stmt
}

func NewContext() *Context {
	return &Context{
		State:       NewState(),
		definitions: map[string]ast.Stmt{},
	}
}

func (c *Context) AddDefinition(name string, definition ast.Stmt) {
	c.definitions[name] = definition
}

func (c *Context) Definition(name string) (ast.Stmt, bool) {
	def, ok := c.definitions[name]
	return def, ok
}

func (c *Context) SetVariable(name string, value int32) {
	c.State.Set(name, value)
}

func (c *Context) Variable(name string) int32 {
	return c.State.Get(name)
}
