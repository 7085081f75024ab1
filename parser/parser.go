package parser

import (
	"fmt"
	"strconv"
	"strings"

	"calq.dev/calq/ast"
	"calq.dev/calq/lexer"
	"calq.dev/calq/token"
	"fortio.org/log"
	"fortio.org/safecast"
	"fortio.org/sets"
	"github.com/rivo/uniseg"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Error struct {
	Msg string
	Tok *token.Token
}

type Parser struct {
	l *lexer.Lexer

	curToken    *token.Token
	peekToken   *token.Token
	peekNewline bool // a newline separates curToken from peekToken

	errors []Error

	loopDepth int // break and continue are only valid inside a while body.

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// Tokens that can't end an expression and can't start a new statement, so seeing one
// after `return` means the return has a value.
var statementEnds = sets.New(token.RBRACE, token.SEMICOLON, token.EOF)

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseNumberLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.TILDE, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.AND, token.OR,
		token.EQ, token.NOTEQ, token.LT, token.GT, token.LTEQ, token.GTEQ,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) Errors() []string {
	res := make([]string, 0, len(p.errors))
	for _, e := range p.errors {
		res = append(res, e.Msg)
	}
	return res
}

// Diagnostics returns the errors along with the offending source line and a caret
// under the offending token.
func (p *Parser) Diagnostics() []string {
	res := make([]string, 0, len(p.errors))
	for _, e := range p.errors {
		line := p.l.Line(e.Tok.Line)
		col := min(e.Tok.Column, len(line))
		res = append(res, fmt.Sprintf("%s\n%s\n%s^", e.Msg, line, caretPadding(line[:col])))
	}
	return res
}

// Tabs are kept as is, everything else is replaced by spaces of the same display width.
func caretPadding(prefix string) string {
	parts := strings.Split(prefix, "\t")
	for i, part := range parts {
		parts[i] = strings.Repeat(" ", uniseg.StringWidth(part))
	}
	return strings.Join(parts, "\t")
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	p.peekNewline = p.l.HadNewline()
}

func (p *Parser) ParseProgram() *ast.Statements {
	program := &ast.Statements{}
	program.Statements = []ast.Node{}

	for p.curToken.Type != token.EOF {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil { // classic interface nil gotcha, must make sure explicit nil interface is returned (right type)
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type { //nolint:exhaustive // default handles the rest.
	case token.VAR, token.MUT:
		return p.parseVarStatement()
	case token.FUNC:
		return p.parseFunctionStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.BREAK, token.CONTINUE:
		return p.parseLoopControl()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.PRINT:
		return p.parsePrintStatement()
	case token.SOLVE:
		return p.parseSolveStatement()
	case token.IDENT:
		if p.peekToken.Type.IsAssignment() {
			return p.parseAssignStatement()
		}
	}
	exp := p.parseExpression(ast.LOWEST)
	if exp == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseVarStatement() ast.Node {
	stmt := &ast.VarStatement{}
	stmt.Token = p.curToken
	stmt.Mutable = p.curTokenIs(token.MUT)

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.newIdentifier()

	if !p.peekTokenIs(token.ASSIGN) {
		if stmt.Mutable {
			p.peekError(token.ASSIGN)
			return nil
		}
		// `var x` alone declares x as 0.
		stmt.Val = &ast.NumberLiteral{Base: stmt.Base, Val: 0}
		return stmt
	}
	p.nextToken()
	p.nextToken()
	stmt.Val = p.parseExpression(ast.LOWEST)
	if stmt.Val == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseAssignStatement() ast.Node {
	stmt := &ast.AssignStatement{}
	stmt.Name = p.newIdentifier()
	p.nextToken()
	stmt.Token = p.curToken
	stmt.Operator = p.curToken.Type
	p.nextToken()
	stmt.Val = p.parseExpression(ast.LOWEST)
	if stmt.Val == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionStatement() ast.Node {
	stmt := &ast.FunctionStatement{}
	stmt.Token = p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.newIdentifier()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	stmt.Parameters = params
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	// A function body starts outside of any loop, even when declared inside one.
	oldDepth := p.loopDepth
	p.loopDepth = 0
	stmt.Body = p.parseBlockStatement()
	p.loopDepth = oldDepth
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, bool) {
	identifiers := []*ast.Identifier{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return identifiers, true
	}
	seen := sets.New[string]()
	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		ident := p.newIdentifier()
		if seen.Has(ident.Name) {
			p.errorf(p.curToken, "duplicate parameter %q", ident.Name)
			return nil, false
		}
		seen.Add(ident.Name)
		identifiers = append(identifiers, ident)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return identifiers, true
}

// Expects curToken to be `{`, leaves curToken on the matching `}`.
func (p *Parser) parseBlockStatement() *ast.Statements {
	block := &ast.Statements{}
	block.Token = p.curToken
	block.Statements = []ast.Node{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorf(p.curToken, "unexpected end of input, missing }")
			return nil
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
		p.nextToken()
	}
	return block
}

// Parses `condition {` ... `}` with curToken on the keyword before the condition.
func (p *Parser) parseConditionAndBlock() (ast.Expression, *ast.Statements) {
	p.nextToken()
	condition := p.parseExpression(ast.LOWEST)
	if condition == nil {
		return nil, nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil, nil
	}
	body := p.parseBlockStatement()
	if body == nil {
		return nil, nil
	}
	return condition, body
}

func (p *Parser) parseIfStatement() ast.Node {
	stmt := &ast.IfStatement{}
	stmt.Token = p.curToken
	stmt.Condition, stmt.Consequence = p.parseConditionAndBlock()
	if stmt.Consequence == nil {
		return nil
	}
	for p.peekTokenIs(token.ELSEIF) {
		p.nextToken()
		condition, body := p.parseConditionAndBlock()
		if body == nil {
			return nil
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Condition: condition, Body: body})
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Alternative = p.parseBlockStatement()
		if stmt.Alternative == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Node {
	stmt := &ast.WhileStatement{}
	stmt.Token = p.curToken
	p.loopDepth++
	stmt.Condition, stmt.Body = p.parseConditionAndBlock()
	p.loopDepth--
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseLoopControl() ast.Node {
	if p.loopDepth == 0 {
		p.errorf(p.curToken, "%s outside of a while loop", p.curToken.Literal)
		return nil
	}
	if p.curTokenIs(token.BREAK) {
		return &ast.BreakStatement{Base: ast.Base{Token: p.curToken}}
	}
	return &ast.ContinueStatement{Base: ast.Base{Token: p.curToken}}
}

func (p *Parser) parseReturnStatement() ast.Node {
	stmt := &ast.ReturnStatement{}
	stmt.Token = p.curToken
	if p.peekNewline || statementEnds.Has(p.peekToken.Type) {
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(ast.LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parsePrintStatement() ast.Node {
	stmt := &ast.PrintStatement{}
	stmt.Token = p.curToken
	p.nextToken()
	stmt.Val = p.parseExpression(ast.LOWEST)
	if stmt.Val == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseSolveStatement() ast.Node {
	stmt := &ast.SolveStatement{}
	stmt.Token = p.curToken
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorf(p.curToken, "unexpected end of input, missing }")
			return nil
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		left := p.parseExpression(ast.LOWEST)
		if left == nil || !p.expectPeek(token.ASSIGN) {
			return nil
		}
		p.nextToken()
		right := p.parseExpression(ast.LOWEST)
		if right == nil {
			return nil
		}
		stmt.Equations = append(stmt.Equations, ast.Equation{Left: left, Right: right})
		p.nextToken()
	}
	return stmt
}

func sameToken(msg string, actual *token.Token, expected token.Type) bool {
	res := actual.Type == expected
	if res {
		log.Debugf("%sTokenIs indeed: %s", msg, actual.DebugString())
	}
	return res
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return sameToken("cur", p.curToken, t)
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return sameToken("peek", p.peekToken, t)
}

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) errorf(tok *token.Token, format string, args ...any) {
	msg := fmt.Sprintf("%d:%d: ", tok.Line, tok.Column+1) + fmt.Sprintf(format, args...)
	log.LogVf("parser error: %s", msg)
	p.errors = append(p.errors, Error{Msg: msg, Tok: tok})
}

func (p *Parser) peekError(t token.Type) {
	p.errorf(p.peekToken, "expected next token to be %s, got %s (%q) instead",
		t, p.peekToken.Type, p.peekToken.Literal)
}

func (p *Parser) noPrefixParseFnError(t *token.Token) {
	if t.Type == token.EOF {
		p.errorf(t, "unexpected end of input")
		return
	}
	p.errorf(t, "no prefix parse function for %s found", t.DebugString())
}

func (p *Parser) peekPrecedence() ast.Priority {
	if p.peekNewline && p.peekTokenIs(token.LPAREN) {
		// a ( on the next line starts a new statement, it doesn't call.
		return ast.LOWEST
	}
	return ast.Precedence(p.peekToken.Type)
}

func (p *Parser) curPrecedence() ast.Priority {
	return ast.Precedence(p.curToken.Type)
}

func (p *Parser) parseExpression(precedence ast.Priority) ast.Expression {
	log.Debugf("parseExpression: %s precedence %d", p.curToken.DebugString(), precedence)
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}
	return leftExp
}

func (p *Parser) newIdentifier() *ast.Identifier {
	i := &ast.Identifier{}
	i.Token = p.curToken
	i.Name = p.curToken.Literal
	return i
}

func (p *Parser) parseIdentifier() ast.Expression {
	return p.newIdentifier()
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	return p.numberLiteral(p.curToken, false)
}

// Checked conversion to the int32 range of calq numbers.
func (p *Parser) numberLiteral(tok *token.Token, negative bool) ast.Expression {
	lit := &ast.NumberLiteral{}
	lit.Token = tok
	value, err := strconv.ParseInt(tok.Literal, 10, 64)
	if negative {
		value = -value
	}
	if err == nil {
		lit.Val, err = safecast.Convert[int32](value)
	}
	if err != nil {
		sign := ""
		if negative {
			sign = "-"
		}
		p.errorf(tok, "could not parse %s%s as a 32 bits integer", sign, tok.Literal)
		return nil
	}
	return lit
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	if p.curTokenIs(token.MINUS) && p.peekTokenIs(token.INT) {
		// Folded so -2147483648 is representable.
		p.nextToken()
		return p.numberLiteral(p.curToken, true)
	}
	expression := &ast.PrefixExpression{}
	expression.Token = p.curToken
	expression.Operator = p.curToken.Type
	p.nextToken()
	expression.Right = p.parseExpression(ast.PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{}
	expression.Token = p.curToken
	expression.Operator = p.curToken.Type
	expression.Left = left

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(ast.LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	name, ok := function.(*ast.Identifier)
	if !ok {
		p.errorf(p.curToken, "only named functions can be called, got %s", ast.String(function))
		return nil
	}
	exp := &ast.CallExpression{Function: name}
	exp.Token = p.curToken
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

func (p *Parser) parseCallArguments() ([]ast.Expression, bool) {
	args := []ast.Expression{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, true
	}
	for {
		p.nextToken()
		arg := p.parseExpression(ast.LOWEST)
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return args, true
}
