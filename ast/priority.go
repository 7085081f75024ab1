package ast

import "calq.dev/calq/token"

type Priority int8

const (
	_ Priority = iota
	LOWEST
	OR          // |
	AND         // &
	EQUALS      // == ~=
	LESSGREATER // > or <
	SUM         // +
	PRODUCT     // *
	PREFIX      // -X or ~X
	CALL        // myFunction(X)
)

var precedences = map[token.Type]Priority{
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOTEQ:    EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LTEQ:     LESSGREATER,
	token.GTEQ:     LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   CALL,
}

// Precedence of a binary operator token, LOWEST for anything else.
func Precedence(t token.Type) Priority {
	if p, ok := precedences[t]; ok {
		return p
	}
	return LOWEST
}

var operators = map[token.Type]string{
	token.ASSIGN:   "=",
	token.PLUSEQ:   "+=",
	token.MINUSEQ:  "-=",
	token.MULEQ:    "*=",
	token.DIVEQ:    "/=",
	token.MODEQ:    "%=",
	token.PLUS:     "+",
	token.MINUS:    "-",
	token.ASTERISK: "*",
	token.SLASH:    "/",
	token.PERCENT:  "%",
	token.TILDE:    "~",
	token.AND:      "&",
	token.OR:       "|",
	token.EQ:       "==",
	token.NOTEQ:    "~=",
	token.LT:       "<",
	token.LTEQ:     "<=",
	token.GT:       ">",
	token.GTEQ:     ">=",
}

// Operator returns the source form of an operator token type.
func Operator(t token.Type) string {
	if s, ok := operators[t]; ok {
		return s
	}
	return t.String()
}
