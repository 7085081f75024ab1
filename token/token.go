// Package token defines the lexical tokens of the calq language.
package token

import (
	"strconv"

	"fortio.org/log"
	"fortio.org/sets"
)

type Type uint8

type Token struct {
	Type    Type
	Literal string
	Line    int // 1 based
	Column  int // 0 based byte offset within the line
}

const (
	ILLEGAL Type = iota
	EOF

	// Identifiers + literals.
	IDENT // add, foobar, x, y, ...
	INT   // 1343456

	// Assignment operators.
	ASSIGN
	PLUSEQ
	MINUSEQ
	MULEQ
	DIVEQ
	MODEQ

	// Operators.
	PLUS
	MINUS
	ASTERISK
	SLASH
	PERCENT
	TILDE
	AND
	OR

	EQ
	NOTEQ
	LT
	LTEQ
	GT
	GTEQ

	// Delimiters.
	COMMA
	SEMICOLON

	LPAREN
	RPAREN
	LBRACE
	RBRACE

	// Keywords.
	VAR
	MUT
	FUNC
	IF
	ELSEIF
	ELSE
	WHILE
	BREAK
	CONTINUE
	RETURN
	PRINT
	SOLVE
)

//go:generate stringer -type=Type
var _ = SOLVE.String() // force compile error if go generate is missing.

var keywords = map[string]Type{
	"var":      VAR,
	"mut":      MUT,
	"fun":      FUNC,
	"if":       IF,
	"elseif":   ELSEIF,
	"else":     ELSE,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"print":    PRINT,
	"solve":    SOLVE,
}

// Single character operators and delimiters.
var singles = map[byte]Type{
	'=': ASSIGN,
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'%': PERCENT,
	'~': TILDE,
	'&': AND,
	'|': OR,
	'<': LT,
	'>': GT,
	',': COMMA,
	';': SEMICOLON,
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
}

// Two character tokens, all of them end with '='.
var doubles = map[byte]Type{
	'=': EQ,
	'~': NOTEQ,
	'<': LTEQ,
	'>': GTEQ,
	'+': PLUSEQ,
	'-': MINUSEQ,
	'*': MULEQ,
	'/': DIVEQ,
	'%': MODEQ,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		log.Debugf("LookupIdent(%s) found %s", ident, tok)
		return tok
	}
	return IDENT
}

// Char returns the single character token type for ch, if there is one.
func Char(ch byte) (Type, bool) {
	t, ok := singles[ch]
	return t, ok
}

// CharEqual returns the token type for ch followed by '=', if there is one.
func CharEqual(ch byte) (Type, bool) {
	t, ok := doubles[ch]
	return t, ok
}

// IsAssignment is true for = and the compound assignment operators.
func (t Type) IsAssignment() bool {
	return t >= ASSIGN && t <= MODEQ
}

func (t *Token) DebugString() string {
	return t.Type.String() + ":" + strconv.Quote(t.Literal)
}

func init() {
	info.Keywords = sets.New[string]()
	for k := range keywords {
		info.Keywords.Add(k)
	}
	info.Tokens = sets.New[string]()
	for ch := range singles {
		info.Tokens.Add(string(ch))
	}
	for ch := range doubles {
		info.Tokens.Add(string(ch) + "=")
	}
}
