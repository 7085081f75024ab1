// Package object is the calq value and memory model: values, the reference
// counted arena holding them, the register file and the lexical scopes.
package object

import (
	"strconv"
	"strings"

	"calq.dev/calq/ast"
)

type Type uint8

type Object interface {
	Type() Type
	Inspect() string
}

const (
	UNKNOWN Type = iota
	NIL
	NUMBER
	FUNC
	LAST
)

func (t Type) String() string {
	switch t {
	case NIL:
		return "Null"
	case NUMBER:
		return "Number"
	case FUNC:
		return "Function"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

var NULL = Null{}

type Number struct {
	Value int32
}

func (n Number) Type() Type { return NUMBER }
func (n Number) Inspect() string {
	return strconv.FormatInt(int64(n.Value), 10)
}

type Null struct{}

func (n Null) Type() Type      { return NIL }
func (n Null) Inspect() string { return "Null" }

// Function is always used by pointer: two functions are the same value only
// when they are the same declaration instance (same captured snapshot).
type Function struct {
	Name       string
	Parameters []string
	Body       *ast.Statements
	Env        *Scope // flattened snapshot of the declaring scope chain.
	released   bool
}

func (f *Function) Type() Type      { return FUNC }
func (f *Function) Inspect() string { return "Function" }

// Signature is the human readable `fun name(a, b)` form.
func (f *Function) Signature() string {
	out := strings.Builder{}
	out.WriteString("fun ")
	out.WriteString(f.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(f.Parameters, ", "))
	out.WriteString(")")
	return out.String()
}

func NativeBoolToNumber(input bool) Number {
	if input {
		return Number{Value: 1}
	}
	return Number{Value: 0}
}

// Truthy is the truthiness rule of calq: only 0 and Null are false.
func Truthy(o Object) bool {
	switch o := o.(type) {
	case Number:
		return o.Value != 0
	case Null:
		return false
	default:
		return o != nil
	}
}

// Equals is the interning equality: numbers by value, null with null and
// functions by identity.
func Equals(left, right Object) bool {
	switch left := left.(type) {
	case Number:
		r, ok := right.(Number)
		return ok && r.Value == left.Value
	case Null:
		_, ok := right.(Null)
		return ok
	case *Function:
		r, ok := right.(*Function)
		return ok && r == left
	default:
		return false
	}
}
