package lexer

import (
	"bytes"

	"calq.dev/calq/token"
)

type Lexer struct {
	input       []byte
	pos         int
	lastNewLine int // position just after most recent newline
	lineNumber  int
	hadNewline  bool // newline was seen before current token
}

// Mode with input expected the be complete (multiline/file).
func New(input string) *Lexer {
	return NewBytes([]byte(input))
}

// Bytes based full input mode.
func NewBytes(input []byte) *Lexer {
	return &Lexer{input: input, lineNumber: 1}
}

func (l *Lexer) Pos() int {
	return l.pos
}

// HadNewline is true when at least one newline separated the last token
// from the one before it.
func (l *Lexer) HadNewline() bool {
	return l.hadNewline
}

// For error handling, somewhat expensive.
// Returns the given line (1 based) of the input, empty if out of range.
func (l *Lexer) Line(n int) string {
	lines := bytes.Split(l.input, []byte{'\n'})
	if n < 1 || n > len(lines) {
		return ""
	}
	return string(bytes.TrimRight(lines[n-1], "\r"))
}

func (l *Lexer) newToken(t token.Type, literal string, start int) *token.Token {
	return &token.Token{Type: t, Literal: literal, Line: l.lineNumber, Column: start - l.lastNewLine}
}

func (l *Lexer) NextToken() *token.Token {
	l.hadNewline = false
	l.skipWhitespaceAndComments()
	start := l.pos
	ch := l.readChar()
	if ch == 0 {
		return l.newToken(token.EOF, "", start)
	}
	if l.peekChar() == '=' {
		if t, ok := token.CharEqual(ch); ok {
			l.pos++
			return l.newToken(t, string(l.input[start:l.pos]), start)
		}
	}
	if t, ok := token.Char(ch); ok {
		return l.newToken(t, string(ch), start)
	}
	switch {
	case isLetter(ch):
		ident := l.readIdentifier()
		return l.newToken(token.LookupIdent(ident), ident, start)
	case isDigit(ch):
		return l.newToken(token.INT, l.readNumber(), start)
	default:
		return l.newToken(token.ILLEGAL, string(ch), start)
	}
}

func isWhiteSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		ch := l.peekChar()
		switch {
		case ch == '#':
			l.skipComment()
		case isWhiteSpace(ch):
			l.newline(ch)
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) newline(ch byte) {
	if ch != '\n' {
		return
	}
	l.hadNewline = true
	l.lastNewLine = l.pos + 1
	l.lineNumber++
}

// `#` comments run to the end of the line, `#[[` ... `]]` can span lines.
// An unterminated block comment runs to the end of the input.
func (l *Lexer) skipComment() {
	l.pos++ // '#'
	if l.peekChar() == '[' && l.peekAt(1) == '[' {
		l.pos += 2
		for {
			ch := l.peekChar()
			if ch == 0 {
				return
			}
			if ch == ']' && l.peekAt(1) == ']' {
				l.pos += 2
				return
			}
			l.newline(ch)
			l.pos++
		}
	}
	for notEOL(l.peekChar()) {
		l.pos++
	}
}

func (l *Lexer) readChar() byte {
	ch := l.peekChar()
	l.pos++
	return ch
}

func (l *Lexer) peekChar() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos < 0 {
		panic("Lexer position is negative")
	}
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos - 1
	for IsAlphaNum(l.peekChar()) {
		l.pos++
	}
	return string(l.input[pos:l.pos])
}

func notEOL(ch byte) bool {
	return ch != '\n' && ch != 0
}

// Integers only. Range checking is left to the parser.
func (l *Lexer) readNumber() string {
	pos := l.pos - 1
	for isDigit(l.peekChar()) {
		l.pos++
	}
	return string(l.input[pos:l.pos])
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func IsAlphaNum(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
