package solve_test

import (
	"errors"
	"testing"

	"calq.dev/calq/ast"
	"calq.dev/calq/lexer"
	"calq.dev/calq/parser"
	"calq.dev/calq/solve"
)

func parseSolve(t *testing.T, input string) *ast.SolveStatement {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser has %d error(s): %v", len(p.Errors()), p.Errors())
	}
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.SolveStatement)
	if !ok {
		t.Fatalf("not a solve statement: %T", program.Statements[0])
	}
	return stmt
}

func TestVars(t *testing.T) {
	stmt := parseSolve(t, "solve { 2*y + x - y*3 = z }")
	got := solve.Vars(stmt.Equations[0].Left)
	want := []string{"x", "y"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Vars() = %v, want %v", got, want)
	}
}

func TestCoefficients(t *testing.T) {
	stmt := parseSolve(t, "solve { 2*x + 3 - (y - x) = 4*y - -1 }")
	eq, err := solve.Coefficients(stmt.Equations[0].Left, stmt.Equations[0].Right)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3x - 5y + 2 = 0
	if eq.Coeffs["x"] != 3 || eq.Coeffs["y"] != -5 || eq.Const != -2 {
		t.Errorf("Coefficients() = %+v", eq)
	}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		input    string
		expected map[string]string
	}{
		{"solve { x = 3 }", map[string]string{"x": "3"}},
		{"solve { 2*x = 7 }", map[string]string{"x": "3.5"}},
		{"solve { x + y = 10; x - y = 2 }", map[string]string{"x": "6", "y": "4"}},
		{"solve { 2*x + y - z = 8; -3*x - y + 2*z = -11; -2*x + y + 2*z = -3 }",
			map[string]string{"x": "2", "y": "3", "z": "-1"}},
		{"solve { (1+1)*a = -a*2 + 8 }", map[string]string{"a": "2"}},
	}
	for _, tt := range tests {
		stmt := parseSolve(t, tt.input)
		sol, err := solve.System(stmt.Equations)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if len(sol.Names) != len(tt.expected) {
			t.Errorf("%q: got names %v", tt.input, sol.Names)
		}
		for name, want := range tt.expected {
			if got := solve.Format(sol.Values[name]); got != want {
				t.Errorf("%q: %s = %s, want %s", tt.input, name, got, want)
			}
		}
	}
}

func TestNoSolution(t *testing.T) {
	tests := []string{
		"solve { x + y = 1; x + y = 2 }", // singular
		"solve { x + y = 1 }",            // not square
		"solve { 1 = 1 }",                // no variable
		"solve { x*y = 1 }",              // not linear
		"solve { x/2 = 1 }",              // not linear either
		"solve { f(x) = 1 }",
	}
	for _, input := range tests {
		stmt := parseSolve(t, input)
		_, err := solve.System(stmt.Equations)
		if !errors.Is(err, solve.ErrNoSolution) {
			t.Errorf("%q: expected ErrNoSolution, got %v", input, err)
		}
	}
}

func TestFormat(t *testing.T) {
	for v, want := range map[float64]string{
		2:                  "2",
		1.9999999999999998: "2",
		-0.00000000000001:  "0",
		0.25:               "0.25",
		-1.5:               "-1.5",
	} {
		if got := solve.Format(v); got != want {
			t.Errorf("Format(%v) = %q, want %q", v, got, want)
		}
	}
}
