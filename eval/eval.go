package eval

import (
	"fmt"

	"calq.dev/calq/ast"
	"calq.dev/calq/object"
	"calq.dev/calq/solve"
	"calq.dev/calq/token"
	"fortio.org/log"
)

// signal is the control flow outcome of a statement.
type signal uint8

const (
	normal signal = iota
	returned
	breakRequested
	continueRequested
)

// flow is what evaluating a statement yields: a signal and, for returned,
// the returned value. For normal it carries the value of an expression
// statement (nil for the other statements), the trailing value of a group.
type flow struct {
	signal signal
	value  object.Object
}

func (s *State) checkCancel() error {
	if s.ctx == nil {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return &object.Error{Kind: object.Interrupted, Cause: err}
	}
	return nil
}

func (s *State) evalStatements(stmts []ast.Node) (flow, error) {
	var last flow
	for _, stmt := range stmts {
		if err := s.checkCancel(); err != nil {
			return flow{}, err
		}
		f, err := s.evalStatement(stmt)
		if err != nil {
			return flow{}, err
		}
		if f.signal != normal {
			return f, nil
		}
		last = f
	}
	return last, nil
}

func (s *State) evalStatement(node ast.Node) (flow, error) {
	switch node := node.(type) {
	case *ast.VarStatement:
		return flow{}, s.evalVar(node)
	case *ast.AssignStatement:
		return flow{}, s.evalAssign(node)
	case *ast.FunctionStatement:
		return flow{}, s.evalFunctionDeclaration(node)
	case *ast.IfStatement:
		return s.evalIf(node)
	case *ast.WhileStatement:
		return s.evalWhile(node)
	case *ast.BreakStatement:
		return flow{signal: breakRequested}, nil
	case *ast.ContinueStatement:
		return flow{signal: continueRequested}, nil
	case *ast.ReturnStatement:
		var v object.Object = object.NULL
		if node.ReturnValue != nil {
			var err error
			v, err = s.evalExpr(node.ReturnValue)
			if err != nil {
				return flow{}, err
			}
		}
		// Register 0 keeps the value alive while the block scopes unwind.
		if err := s.setResult(v); err != nil {
			return flow{}, err
		}
		return flow{signal: returned, value: v}, nil
	case *ast.PrintStatement:
		v, err := s.evalExpr(node.Val)
		if err != nil {
			return flow{}, err
		}
		fmt.Fprintln(s.Out, v.Inspect())
		return flow{}, nil
	case *ast.SolveStatement:
		return flow{}, s.evalSolve(node)
	case ast.Expression:
		v, err := s.evalExpr(node)
		if err != nil {
			return flow{}, err
		}
		return flow{value: v}, nil
	}
	panic(fmt.Sprintf("bug: unexpected statement %T", node))
}

// store allocates v and runs fn with the owned handle, released afterwards:
// whatever fn bound keeps its own reference.
func (s *State) store(v object.Object, fn func(h object.Handle) error) error {
	h, err := s.arena.Alloc(v)
	if err != nil {
		return err
	}
	defer s.arena.Release(h)
	return fn(h)
}

func (s *State) evalVar(node *ast.VarStatement) error {
	v, err := s.evalExpr(node.Val)
	if err != nil {
		return err
	}
	return s.store(v, func(h object.Handle) error {
		return s.env.Declare(node.Name.Name, h, node.Mutable)
	})
}

var compound = map[token.Type]token.Type{
	token.PLUSEQ:  token.PLUS,
	token.MINUSEQ: token.MINUS,
	token.MULEQ:   token.ASTERISK,
	token.DIVEQ:   token.SLASH,
	token.MODEQ:   token.PERCENT,
}

func (s *State) evalAssign(node *ast.AssignStatement) error {
	name := node.Name.Name
	v, err := s.evalExpr(node.Val)
	if err != nil {
		return err
	}
	sym, err := s.env.Lookup(name)
	if err != nil {
		return err
	}
	if !sym.Mutable {
		return object.NewError(object.ImmutableAssignment, name)
	}
	if op, ok := compound[node.Operator]; ok {
		v, err = s.evalInfix(op, s.arena.Get(sym.Handle), v)
		if err != nil {
			return err
		}
	}
	return s.store(v, func(h object.Handle) error {
		return s.env.Rebind(name, h)
	})
}

func (s *State) evalFunctionDeclaration(node *ast.FunctionStatement) error {
	fn := &object.Function{
		Name:       node.Name.Name,
		Parameters: make([]string, 0, len(node.Parameters)),
		Body:       node.Body,
		Env:        s.env.Capture(),
	}
	for _, p := range node.Parameters {
		fn.Parameters = append(fn.Parameters, p.Name)
	}
	h, err := s.arena.Alloc(fn)
	if err != nil {
		fn.Env.Release()
		return err
	}
	fn.Env.BindSelf(fn.Name, h)
	defer s.arena.Release(h)
	log.LogVf("declared %s in cell %d", fn.Signature(), h)
	return s.env.Declare(fn.Name, h, false)
}

// enter makes env the active scope and returns the one it replaces.
func (s *State) enter(env *object.Scope) *object.Scope {
	prev := s.env
	s.env = env
	s.frames = append(s.frames, env)
	return prev
}

// leave releases the active scope and restores prev.
func (s *State) leave(prev *object.Scope) {
	s.env.Release()
	s.frames = s.frames[:len(s.frames)-1]
	s.env = prev
}

// runBlock evaluates a body in a fresh child scope, released on exit.
func (s *State) runBlock(body *ast.Statements) (flow, error) {
	prev := s.enter(object.NewEnclosedScope(s.env))
	defer s.leave(prev)
	f, err := s.evalStatements(body.Statements)
	// a block isn't a trailing expression.
	if f.signal == normal {
		f.value = nil
	}
	return f, err
}

func (s *State) condition(e ast.Expression) (bool, error) {
	v, err := s.evalExpr(e)
	if err != nil {
		return false, err
	}
	return object.Truthy(v), nil
}

func (s *State) evalIf(node *ast.IfStatement) (flow, error) {
	ok, err := s.condition(node.Condition)
	if err != nil {
		return flow{}, err
	}
	if ok {
		return s.runBlock(node.Consequence)
	}
	for _, branch := range node.ElseIfs {
		ok, err = s.condition(branch.Condition)
		if err != nil {
			return flow{}, err
		}
		if ok {
			return s.runBlock(branch.Body)
		}
	}
	if node.Alternative != nil {
		return s.runBlock(node.Alternative)
	}
	return flow{}, nil
}

func (s *State) evalWhile(node *ast.WhileStatement) (flow, error) {
	for {
		if err := s.checkCancel(); err != nil {
			return flow{}, err
		}
		ok, err := s.condition(node.Condition)
		if err != nil {
			return flow{}, err
		}
		if !ok {
			return flow{}, nil
		}
		f, err := s.runBlock(node.Body)
		if err != nil {
			return flow{}, err
		}
		switch f.signal {
		case breakRequested:
			return flow{}, nil
		case returned:
			return f, nil
		case normal, continueRequested:
		}
	}
}

func (s *State) evalSolve(node *ast.SolveStatement) error {
	sol, err := solve.System(node.Equations)
	if err != nil {
		return &object.Error{Kind: object.NoSolution, Cause: err}
	}
	for _, name := range sol.Names {
		fmt.Fprintf(s.Out, "%s = %s\n", name, solve.Format(sol.Values[name]))
	}
	return nil
}

func (s *State) evalExpr(node ast.Expression) (object.Object, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		return object.Number{Value: node.Val}, nil
	case *ast.Identifier:
		sym, err := s.env.Lookup(node.Name)
		if err != nil {
			return nil, err
		}
		return s.arena.Get(sym.Handle), nil
	case *ast.PrefixExpression:
		right, err := s.evalExpr(node.Right)
		if err != nil {
			return nil, err
		}
		return s.evalPrefix(node.Operator, right)
	case *ast.InfixExpression:
		left, err := s.evalExpr(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.evalExpr(node.Right)
		if err != nil {
			return nil, err
		}
		return s.evalInfix(node.Operator, left, right)
	case *ast.CallExpression:
		return s.evalCall(node)
	}
	panic(fmt.Sprintf("bug: unexpected expression %T", node))
}

func (s *State) evalPrefix(operator token.Type, right object.Object) (object.Object, error) {
	switch operator { //nolint:exhaustive // only 2 prefix operators.
	case token.TILDE:
		return object.NativeBoolToNumber(!object.Truthy(right)), nil
	case token.MINUS:
		n, ok := right.(object.Number)
		if !ok {
			return nil, s.Errorf("-%s", right.Type())
		}
		return object.Number{Value: -n.Value}, nil
	}
	return nil, s.Errorf("unknown operator %s%s", ast.Operator(operator), right.Type())
}

func (s *State) evalInfix(operator token.Type, left, right object.Object) (object.Object, error) {
	l, lok := left.(object.Number)
	r, rok := right.(object.Number)
	if !lok || !rok {
		return nil, s.Errorf("%s %s %s", left.Type(), ast.Operator(operator), right.Type())
	}
	a, b := l.Value, r.Value
	switch operator { //nolint:exhaustive // default handles the rest.
	case token.PLUS:
		return object.Number{Value: a + b}, nil
	case token.MINUS:
		return object.Number{Value: a - b}, nil
	case token.ASTERISK:
		return object.Number{Value: a * b}, nil
	case token.SLASH:
		if b == 0 {
			return nil, &object.Error{Kind: object.DivisionByZero}
		}
		return object.Number{Value: a / b}, nil
	case token.PERCENT:
		if b == 0 {
			return nil, &object.Error{Kind: object.ModuloByZero}
		}
		return object.Number{Value: a % b}, nil
	case token.AND:
		return object.NativeBoolToNumber(a != 0 && b != 0), nil
	case token.OR:
		return object.NativeBoolToNumber(a != 0 || b != 0), nil
	case token.EQ:
		return object.NativeBoolToNumber(a == b), nil
	case token.NOTEQ:
		return object.NativeBoolToNumber(a != b), nil
	case token.LT:
		return object.NativeBoolToNumber(a < b), nil
	case token.LTEQ:
		return object.NativeBoolToNumber(a <= b), nil
	case token.GT:
		return object.NativeBoolToNumber(a > b), nil
	case token.GTEQ:
		return object.NativeBoolToNumber(a >= b), nil
	}
	return nil, s.Errorf("unknown operator %s", ast.Operator(operator))
}

func (s *State) evalCall(node *ast.CallExpression) (object.Object, error) {
	name := node.Function.Name
	handles := make([]object.Handle, 0, len(node.Arguments))
	defer func() {
		for _, h := range handles {
			s.arena.Release(h)
		}
	}()
	for _, arg := range node.Arguments {
		v, err := s.evalExpr(arg)
		if err != nil {
			return nil, err
		}
		h, err := s.arena.Alloc(v)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	sym, err := s.env.Lookup(name)
	if err != nil {
		return nil, err
	}
	fn, ok := s.arena.Get(sym.Handle).(*object.Function)
	if !ok {
		return nil, object.NewError(object.NotCallable, name)
	}
	if len(fn.Parameters) != len(handles) {
		return nil, &object.Error{Kind: object.ArityMismatch, Name: name, Expected: len(fn.Parameters), Got: len(handles)}
	}
	if len(handles) > object.NumRegisters {
		return nil, &object.Error{Kind: object.TooManyArguments, Name: name, Expected: object.NumRegisters, Got: len(handles)}
	}
	if s.depth >= s.MaxDepth {
		log.LogVf("max depth %d reached calling %s", s.MaxDepth, name)
		return nil, &object.Error{Kind: object.MaxDepthExceeded, Name: name, Expected: s.MaxDepth}
	}
	// The function must outlive its own call even if the body rebinds the name.
	s.arena.Retain(sym.Handle)
	defer s.arena.Release(sym.Handle)
	for i, h := range handles {
		s.regs.Set(i, h)
	}
	return s.applyFunction(fn)
}

// applyFunction runs fn with its arguments in the registers. The result is
// stored in register 0 before the call scope is released.
func (s *State) applyFunction(fn *object.Function) (object.Object, error) {
	callEnv := object.NewFunctionScope(fn)
	for i, p := range fn.Parameters {
		err := callEnv.Declare(p, s.regs.Get(i), false)
		s.regs.Clear(i)
		if err != nil {
			callEnv.Release()
			return nil, err
		}
	}
	prev := s.enter(callEnv)
	s.depth++
	s.calls = append(s.calls, fn.Name)
	log.LogVf("call %s depth %d", fn.Signature(), s.depth)
	defer func() {
		s.calls = s.calls[:len(s.calls)-1]
		s.depth--
		s.leave(prev)
	}()
	f, err := s.evalStatements(fn.Body.Statements)
	if err != nil {
		return nil, s.withStack(err)
	}
	// A returned value is already in register 0. Falling off the end, or a
	// stray break or continue reaching the call boundary, yields Null.
	if f.signal != returned {
		if err = s.setResult(object.NULL); err != nil {
			return nil, s.withStack(err)
		}
	}
	return s.regs.Value(0), nil
}

func (s *State) setResult(v object.Object) error {
	return s.store(v, func(h object.Handle) error {
		s.regs.Set(0, h)
		return nil
	})
}
