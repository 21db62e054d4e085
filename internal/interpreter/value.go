package interpreter

import "strconv"

// Value is the transient result of evaluating a node: Integer, Boolean or
// Unit.
type Value interface {
	value()
	String() string
}

type Integer int32

type Boolean bool

// Unit is the result of every statement.
type Unit struct{}

func (Integer) value() {}
func (Boolean) value() {}
func (Unit) value()    {}

func (v Integer) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v Boolean) String() string {
	return strconv.FormatBool(bool(v))
}

func (Unit) String() string {
	return "()"
}
