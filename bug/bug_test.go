package bug_test

import (
	"testing"

	"calq.dev/calq/repl"
)

// Regressions on control flow and memory.

func TestBreakDoesNotLeakIntoOuterLoop(t *testing.T) {
	s := `
mut i = 0
while i < 3 {
	i += 1
	mut j = 0
	while 1 {
		j += 1
		if j == 2 { if 1 { break } }
	}
	print i * 10 + j
}`
	expected := "12\n22\n32\n"
	if got, errs := repl.EvalString(s); got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}

func TestContinueAfterCallInLoop(t *testing.T) {
	// a function returning from inside its own loop must not end the caller's loop.
	s := `
fun first(n) { mut k = 0; while 1 { k += 1; if k == n { return k } } }
mut i = 0
while i < 4 {
	i += 1
	if first(i) == 2 { continue }
	print i
}`
	expected := "1\n3\n4\n"
	if got, errs := repl.EvalString(s); got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}

func TestFunctionReturnedFromNestedBlock(t *testing.T) {
	s := `
fun make(x) {
	while 1 {
		if x > 0 {
			fun pos() { return x }
			return pos
		}
		fun neg() { return -x }
		return neg
	}
}
var a = make(5)
var b = make(-3)
print a() + b()`
	expected := "8\n"
	if got, errs := repl.EvalString(s); got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}

func TestDeepLoopDoesNotExhaustSmallArena(t *testing.T) {
	s := `
fun sq(x) { var r = x * x; return r }
mut i = 0
mut total = 0
while i < 1000 { total += sq(i % 7); i += 1 }
print total`
	// sum of (i%7)^2 over 0..999: 142 full cycles of 91 plus 0+1+4+9+16+25.
	expected := "12977\n"
	got, errs := repl.EvalStringWithOption(t.Context(), repl.Options{ArenaSize: 16}, s)
	if got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}

func TestFactorialOverflowWraps(t *testing.T) {
	s := `
fun fact(n) {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}
print fact(13)`
	// 13! = 6227020800, modulo 2^32.
	expected := "1932053504\n"
	if got, errs := repl.EvalString(s); got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}
