// Package solve solves square systems of linear equations written as calq
// expressions, such as `2*x + y = 7`.
package solve

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"calq.dev/calq/ast"
	"calq.dev/calq/token"
	"fortio.org/log"
	"gonum.org/v1/gonum/mat"
)

var ErrNoSolution = errors.New("no solution found")

// Equation is the linear form sum(Coeffs[v] * v) = Const.
type Equation struct {
	Coeffs map[string]float64
	Const  float64
}

type Solution struct {
	Names  []string // sorted.
	Values map[string]float64
}

// Vars returns the sorted, deduplicated identifiers used in e.
func Vars(e ast.Expression) []string {
	seen := map[string]struct{}{}
	collectVars(e, seen)
	return slices.Sorted(maps.Keys(seen))
}

func collectVars(e ast.Expression, seen map[string]struct{}) {
	switch e := e.(type) {
	case *ast.Identifier:
		seen[e.Name] = struct{}{}
	case *ast.PrefixExpression:
		collectVars(e.Right, seen)
	case *ast.InfixExpression:
		collectVars(e.Left, seen)
		collectVars(e.Right, seen)
	case *ast.CallExpression:
		for _, a := range e.Arguments {
			collectVars(a, seen)
		}
	}
}

// Coefficients moves everything to the left of `lhs = rhs` and collects the
// coefficient of each variable and the constant.
func Coefficients(lhs, rhs ast.Expression) (Equation, error) {
	eq := Equation{Coeffs: map[string]float64{}}
	var constant float64
	if err := extract(lhs, 1, eq.Coeffs, &constant); err != nil {
		return eq, err
	}
	if err := extract(rhs, -1, eq.Coeffs, &constant); err != nil {
		return eq, err
	}
	eq.Const = -constant
	return eq, nil
}

func notLinear(e ast.Expression) error {
	return fmt.Errorf("%w: %s is not linear", ErrNoSolution, ast.String(e))
}

func extract(e ast.Expression, sign float64, coeffs map[string]float64, constant *float64) error {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		*constant += sign * float64(e.Val)
		return nil
	case *ast.Identifier:
		coeffs[e.Name] += sign
		return nil
	case *ast.PrefixExpression:
		if e.Operator != token.MINUS {
			return notLinear(e)
		}
		return extract(e.Right, -sign, coeffs, constant)
	case *ast.InfixExpression:
		switch e.Operator { //nolint:exhaustive // only + - * are linear.
		case token.PLUS:
			if err := extract(e.Left, sign, coeffs, constant); err != nil {
				return err
			}
			return extract(e.Right, sign, coeffs, constant)
		case token.MINUS:
			if err := extract(e.Left, sign, coeffs, constant); err != nil {
				return err
			}
			return extract(e.Right, -sign, coeffs, constant)
		case token.ASTERISK:
			if k, ok := constantValue(e.Right); ok {
				return extract(e.Left, sign*k, coeffs, constant)
			}
			if k, ok := constantValue(e.Left); ok {
				return extract(e.Right, sign*k, coeffs, constant)
			}
		}
	}
	return notLinear(e)
}

// constantValue evaluates variable free expressions.
func constantValue(e ast.Expression) (float64, bool) {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return float64(e.Val), true
	case *ast.PrefixExpression:
		if e.Operator != token.MINUS {
			return 0, false
		}
		v, ok := constantValue(e.Right)
		return -v, ok
	case *ast.InfixExpression:
		l, lok := constantValue(e.Left)
		r, rok := constantValue(e.Right)
		if !lok || !rok {
			return 0, false
		}
		switch e.Operator { //nolint:exhaustive // only + - * are linear.
		case token.PLUS:
			return l + r, true
		case token.MINUS:
			return l - r, true
		case token.ASTERISK:
			return l * r, true
		}
	}
	return 0, false
}

// Solve solves a square system by LU factorization. A system with a
// different number of equations and variables, or a singular one, has no
// (unique) solution.
func Solve(eqs []Equation) (*Solution, error) {
	seen := map[string]struct{}{}
	for _, eq := range eqs {
		for v := range eq.Coeffs {
			seen[v] = struct{}{}
		}
	}
	names := slices.Sorted(maps.Keys(seen))
	n := len(names)
	if n == 0 || n != len(eqs) {
		return nil, fmt.Errorf("%w: %d equations for %d variables", ErrNoSolution, len(eqs), n)
	}
	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	for i, eq := range eqs {
		for j, name := range names {
			a.Set(i, j, eq.Coeffs[name])
		}
		b.SetVec(i, eq.Const)
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		log.LogVf("solve: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrNoSolution, err)
	}
	sol := &Solution{Names: names, Values: make(map[string]float64, n)}
	for i, name := range names {
		sol.Values[name] = x.AtVec(i)
	}
	return sol, nil
}

// System is Coefficients of each equation followed by Solve.
func System(equations []ast.Equation) (*Solution, error) {
	eqs := make([]Equation, 0, len(equations))
	for _, e := range equations {
		eq, err := Coefficients(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return Solve(eqs)
}

// Format prints a solution value, snapping rounding noise to integers.
func Format(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		v = r
	}
	if v == 0 {
		v = 0 // no -0.
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
