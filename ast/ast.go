// Package ast is the tagged-variant tree produced by the parser and walked by
// the evaluator. Every node can pretty print itself back to source.
package ast

import (
	"strconv"
	"strings"

	"calq.dev/calq/token"
)

type Node interface {
	Value() *token.Token
	PrettyPrint(ps *PrintState) *PrintState
}

// Expression nodes produce a value when evaluated, the others are statements.
type Expression interface {
	Node
	expressionNode()
}

type PrintState struct {
	Out             *strings.Builder
	IndentLevel     int
	ExpressionLevel int
	Compact         bool
}

func NewPrintState() *PrintState {
	return &PrintState{Out: &strings.Builder{}}
}

func (ps *PrintState) String() string {
	return ps.Out.String()
}

func (ps *PrintState) Print(str ...string) *PrintState {
	for _, s := range str {
		ps.Out.WriteString(s)
	}
	return ps
}

func (ps *PrintState) indent() {
	if ps.Compact {
		return
	}
	for range ps.IndentLevel {
		ps.Out.WriteByte('\t')
	}
}

// Separator for comma lists, no space in compact mode.
func (ps *PrintState) comma() {
	if ps.Compact {
		ps.Print(",")
	} else {
		ps.Print(", ")
	}
}

// String pretty prints any node, mostly for logs and tests.
func String(n Node) string {
	return n.PrettyPrint(NewPrintState()).String()
}

// Common to all nodes that have a token and avoids repeating the same Value() methods.
type Base struct {
	*token.Token
}

func (b Base) Value() *token.Token {
	return b.Token
}

// Statements is the body of a program, function or block.
type Statements struct {
	Base
	Statements []Node
}

func (p *Statements) PrettyPrint(ps *PrintState) *PrintState {
	for i, s := range p.Statements {
		if i > 0 {
			if ps.Compact {
				ps.Print("; ")
			} else {
				ps.Print("\n")
			}
		}
		ps.indent()
		s.PrettyPrint(ps)
	}
	return ps
}

// Prints `{` statements `}` with the right indentation.
func (p *Statements) printBlock(ps *PrintState) {
	if len(p.Statements) == 0 {
		ps.Print("{}")
		return
	}
	if ps.Compact {
		ps.Print("{")
		p.PrettyPrint(ps)
		ps.Print("}")
		return
	}
	ps.Print("{\n")
	ps.IndentLevel++
	p.PrettyPrint(ps)
	ps.IndentLevel--
	ps.Print("\n")
	ps.indent()
	ps.Print("}")
}

type Identifier struct {
	Base
	Name string
}

func (i *Identifier) expressionNode() {}

func (i *Identifier) PrettyPrint(ps *PrintState) *PrintState {
	return ps.Print(i.Name)
}

type NumberLiteral struct {
	Base
	Val int32
}

func (n *NumberLiteral) expressionNode() {}

func (n *NumberLiteral) PrettyPrint(ps *PrintState) *PrintState {
	return ps.Print(strconv.FormatInt(int64(n.Val), 10))
}

// PrefixExpression is the unary operation: `-x` or `~x`.
type PrefixExpression struct {
	Base
	Operator token.Type
	Right    Expression
}

func (p *PrefixExpression) expressionNode() {}

func (p *PrefixExpression) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print(Operator(p.Operator))
	ps.ExpressionLevel++
	printOperand(ps, p.Right, PREFIX, false)
	ps.ExpressionLevel--
	return ps
}

// InfixExpression is the binary operation.
type InfixExpression struct {
	Base
	Left     Expression
	Operator token.Type
	Right    Expression
}

func (i *InfixExpression) expressionNode() {}

func (i *InfixExpression) PrettyPrint(ps *PrintState) *PrintState {
	prio := Precedence(i.Operator)
	ps.ExpressionLevel++
	printOperand(ps, i.Left, prio, false)
	if ps.Compact {
		ps.Print(Operator(i.Operator))
	} else {
		ps.Print(" ", Operator(i.Operator), " ")
	}
	printOperand(ps, i.Right, prio, true)
	ps.ExpressionLevel--
	return ps
}

// Parenthesize operands that bind looser than their parent, and right operands
// of the same priority as operators are left associative.
func printOperand(ps *PrintState, e Expression, parent Priority, right bool) {
	var child Priority
	switch e := e.(type) {
	case *InfixExpression:
		child = Precedence(e.Operator)
	case *PrefixExpression:
		child = PREFIX
	default:
		e.PrettyPrint(ps)
		return
	}
	if child < parent || (right && child == parent) {
		ps.Print("(")
		e.PrettyPrint(ps)
		ps.Print(")")
		return
	}
	e.PrettyPrint(ps)
}

type CallExpression struct {
	Base      // The '(' token
	Function  *Identifier
	Arguments []Expression
}

func (c *CallExpression) expressionNode() {}

func (c *CallExpression) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print(c.Function.Name, "(")
	oldLevel := ps.ExpressionLevel
	ps.ExpressionLevel = 0
	for i, a := range c.Arguments {
		if i > 0 {
			ps.comma()
		}
		a.PrettyPrint(ps)
	}
	ps.ExpressionLevel = oldLevel
	return ps.Print(")")
}

// VarStatement declares `var name = value` or `mut name = value`.
type VarStatement struct {
	Base
	Mutable bool
	Name    *Identifier
	Val     Expression
}

func (v *VarStatement) PrettyPrint(ps *PrintState) *PrintState {
	if v.Mutable {
		ps.Print("mut ")
	} else {
		ps.Print("var ")
	}
	ps.Print(v.Name.Name, " = ")
	return v.Val.PrettyPrint(ps)
}

// AssignStatement is `name op value` with op one of = += -= *= /= %=.
type AssignStatement struct {
	Base
	Name     *Identifier
	Operator token.Type
	Val      Expression
}

func (a *AssignStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print(a.Name.Name, " ", Operator(a.Operator), " ")
	return a.Val.PrettyPrint(ps)
}

type FunctionStatement struct {
	Base       // The 'fun' token
	Name       *Identifier
	Parameters []*Identifier
	Body       *Statements
}

func (f *FunctionStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print("fun ", f.Name.Name, "(")
	for i, p := range f.Parameters {
		if i > 0 {
			ps.comma()
		}
		ps.Print(p.Name)
	}
	ps.Print(") ")
	f.Body.printBlock(ps)
	return ps
}

type ElseIf struct {
	Condition Expression
	Body      *Statements
}

type IfStatement struct {
	Base
	Condition   Expression
	Consequence *Statements
	ElseIfs     []ElseIf
	Alternative *Statements // nil when there is no else.
}

func (i *IfStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print("if ")
	i.Condition.PrettyPrint(ps)
	ps.Print(" ")
	i.Consequence.printBlock(ps)
	for _, e := range i.ElseIfs {
		ps.Print(" elseif ")
		e.Condition.PrettyPrint(ps)
		ps.Print(" ")
		e.Body.printBlock(ps)
	}
	if i.Alternative != nil {
		ps.Print(" else ")
		i.Alternative.printBlock(ps)
	}
	return ps
}

type WhileStatement struct {
	Base
	Condition Expression
	Body      *Statements
}

func (w *WhileStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print("while ")
	w.Condition.PrettyPrint(ps)
	ps.Print(" ")
	w.Body.printBlock(ps)
	return ps
}

type BreakStatement struct {
	Base
}

func (b *BreakStatement) PrettyPrint(ps *PrintState) *PrintState {
	return ps.Print("break")
}

type ContinueStatement struct {
	Base
}

func (c *ContinueStatement) PrettyPrint(ps *PrintState) *PrintState {
	return ps.Print("continue")
}

type ReturnStatement struct {
	Base
	ReturnValue Expression // nil for a bare `return`.
}

func (r *ReturnStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print("return")
	if r.ReturnValue != nil {
		ps.Print(" ")
		r.ReturnValue.PrettyPrint(ps)
	}
	return ps
}

// PrintStatement is the output statement.
type PrintStatement struct {
	Base
	Val Expression
}

func (p *PrintStatement) PrettyPrint(ps *PrintState) *PrintState {
	ps.Print("print ")
	return p.Val.PrettyPrint(ps)
}

// Equation is one `left = right` line of a solve block.
type Equation struct {
	Left  Expression
	Right Expression
}

type SolveStatement struct {
	Base
	Equations []Equation
}

func (s *SolveStatement) PrettyPrint(ps *PrintState) *PrintState {
	if len(s.Equations) == 0 {
		return ps.Print("solve {}")
	}
	ps.Print("solve {")
	if !ps.Compact {
		ps.IndentLevel++
	}
	for i, e := range s.Equations {
		switch {
		case ps.Compact && i > 0:
			ps.Print("; ")
		case !ps.Compact:
			ps.Print("\n")
			ps.indent()
		}
		e.Left.PrettyPrint(ps)
		ps.Print(" = ")
		e.Right.PrettyPrint(ps)
	}
	if !ps.Compact {
		ps.IndentLevel--
		ps.Print("\n")
		ps.indent()
	}
	return ps.Print("}")
}
