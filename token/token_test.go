package token

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident    string
		expected Type
	}{
		{"var", VAR},
		{"mut", MUT},
		{"fun", FUNC},
		{"elseif", ELSEIF},
		{"solve", SOLVE},
		{"print", PRINT},
		{"variable", IDENT},
		{"Var", IDENT},
	}
	for _, tt := range tests {
		if got := LookupIdent(tt.ident); got != tt.expected {
			t.Errorf("LookupIdent(%q) = %s, want %s", tt.ident, got, tt.expected)
		}
	}
}

func TestChars(t *testing.T) {
	if tok, ok := Char('~'); !ok || tok != TILDE {
		t.Errorf("Char('~') = %s %t", tok, ok)
	}
	if tok, ok := CharEqual('~'); !ok || tok != NOTEQ {
		t.Errorf("CharEqual('~') = %s %t", tok, ok)
	}
	if _, ok := CharEqual('&'); ok {
		t.Errorf("&= is not an operator")
	}
	if _, ok := Char('@'); ok {
		t.Errorf("@ is not a token")
	}
}

func TestIsAssignment(t *testing.T) {
	for _, tok := range []Type{ASSIGN, PLUSEQ, MINUSEQ, MULEQ, DIVEQ, MODEQ} {
		if !tok.IsAssignment() {
			t.Errorf("%s should be an assignment", tok)
		}
	}
	for _, tok := range []Type{EQ, PLUS, IDENT, PERCENT} {
		if tok.IsAssignment() {
			t.Errorf("%s should not be an assignment", tok)
		}
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if len(info.Keywords) != 12 {
		t.Errorf("expected 12 keywords, got %d: %v", len(info.Keywords), info.Keywords)
	}
	for _, s := range []string{"+", "~=", "%=", "{", ";"} {
		if !info.Tokens.Has(s) {
			t.Errorf("missing token %q", s)
		}
	}
	if info.Tokens.Has("&=") {
		t.Errorf("unexpected &= token")
	}
}

func TestDebugString(t *testing.T) {
	tok := &Token{Type: INT, Literal: "42"}
	if got := tok.DebugString(); got != `INT:"42"` {
		t.Errorf("DebugString() = %s", got)
	}
}
