package repl_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"calq.dev/calq/eval"
	"calq.dev/calq/repl"
	"fortio.org/log"
	"fortio.org/terminal"
)

func TestEvalString(t *testing.T) {
	s := `
fun fact(n) { # function
    print n
    if n <= 1 {
        return 1
    }
    return n * fact(n - 1)
}
var result = fact(5)
print result
result`
	expected := "5\n4\n3\n2\n1\n120\n" + log.Colors.Green + "120" + log.Colors.Reset + "\n"
	if got, errs := repl.EvalString(s); got != expected || len(errs) > 0 {
		t.Errorf("EvalString() got %v\n---\n%s\n---want---\n%s\n---", errs, got, expected)
	}
}

func TestEvalStringErrors(t *testing.T) {
	got, errs := repl.EvalString("print 1; var x = 1 / 0; print 2")
	if got != "1\n" {
		t.Errorf("output before the error should be kept, got %q", got)
	}
	if len(errs) != 1 || errs[0] != "DivisionByZero: division by zero" {
		t.Errorf("unexpected errors %v", errs)
	}
	_, errs = repl.EvalString("print (1")
	if len(errs) == 0 {
		t.Errorf("expected parse errors")
	}
}

func TestFormatOnly(t *testing.T) {
	got, errs := repl.EvalStringWithOption(context.Background(), repl.Options{FormatOnly: true},
		"var   x=1+2*3 ;print x")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if got != "var x = 1 + 2 * 3\nprint x\n" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestMaxDuration(t *testing.T) {
	o := repl.Options{MaxDuration: 10 * time.Millisecond}
	_, errs := repl.EvalStringWithOption(context.Background(), o, "while 1 { }")
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "Interrupted: ") {
		t.Errorf("expected an interruption, got %v", errs)
	}
}

func TestSmallArena(t *testing.T) {
	o := repl.Options{ArenaSize: 2}
	_, errs := repl.EvalStringWithOption(context.Background(), o, "var a = 1; var b = 2; var c = 3")
	if len(errs) != 1 || errs[0] != "OutOfMemory: out of memory: all 2 cells in use" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestEvalAllSharedState(t *testing.T) {
	out := strings.Builder{}
	s := eval.NewState()
	s.Out = &out
	o := repl.Options{}
	if errs := repl.EvalAll(context.Background(), s, strings.NewReader("mut total = 40"), &out, o); len(errs) > 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if errs := repl.EvalAll(context.Background(), s, strings.NewReader("total += 2\nprint total"), &out, o); len(errs) > 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if out.String() != "42\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestNesting(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"var x = 1", 0},
		{"fun f(a) {", 1},
		{"fun f(a) {\n if a {", 2},
		{"fun f(a) { if a { } }", 0},
		{"print (1 + ", 1},
		{"# { not counted\nwhile 1 {", 1},
		{"#[[ ( ( ]] }", -1},
	}
	for _, tt := range tests {
		if got := repl.Nesting(tt.input); got != tt.expected {
			t.Errorf("Nesting(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

type fakeReader struct {
	lines   []string
	prompts []string
}

func (f *fakeReader) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	l := f.lines[0]
	f.lines = f.lines[1:]
	if l == "^C" {
		return "", terminal.ErrUserInterrupt
	}
	return l, nil
}

func (f *fakeReader) SetPrompt(p string) {
	f.prompts = append(f.prompts, p)
}

func TestLoop(t *testing.T) {
	in := &fakeReader{lines: []string{
		"mut x = 1",
		"fun double(n) {",
		"  return n * 2",
		"}",
		"print double(x)",
		"x = 1 / 0",
		"print x",
		"fun broken(",
		"^C",
		"print 7",
		"exit",
		"print 8",
	}}
	out := strings.Builder{}
	s := eval.NewState()
	s.Out = &out
	if code := repl.Loop(s, in, &out, repl.Options{ErrorsToOut: true}); code != 0 {
		t.Errorf("unexpected exit code %d", code)
	}
	expected := "2\n" + log.Colors.Red + "DivisionByZero: division by zero" + log.Colors.Reset + "\n1\n7\n"
	if out.String() != expected {
		t.Errorf("got %q, want %q", out.String(), expected)
	}
	if len(in.lines) != 1 {
		t.Errorf("exit should stop reading, %d lines left", len(in.lines))
	}
	continuations := 0
	for _, p := range in.prompts {
		if p == repl.CONTINUATION {
			continuations++
		}
	}
	if continuations != 3 {
		t.Errorf("expected 3 continuation prompts, got %d (%v)", continuations, in.prompts)
	}
}

func TestComplete(t *testing.T) {
	a := repl.NewCompletion()
	a.Trie.Insert("counter")
	a.Trie.Insert("count")
	tests := []struct {
		line, expected string
		pos, newPos    int
		choices        int
	}{
		{"wh", "while", 2, 5, 1},
		{"print cou", "print count", 9, 11, 2},
		{"x = counte + 1", "x = counter + 1", 10, 11, 1},
		{"zz", "", 2, 0, 0},
		{"1 + ", "", 4, 0, 0},
	}
	for _, tt := range tests {
		line, pos, choices, ok := a.Complete(tt.line, tt.pos)
		if ok != (tt.choices > 0) || line != tt.expected || pos != tt.newPos || len(choices) != tt.choices {
			t.Errorf("Complete(%q, %d) = %q %d %v %t", tt.line, tt.pos, line, pos, choices, ok)
		}
	}
}
