// Package parser implements a recursive-descent parser with
// precedence-climbing for expressions. It is driven directly by
// lexer.Next()/Peek() rather than a pre-scanned token slice, and recovers
// from a malformed statement by resynchronizing at the next line break so
// one mistake does not abort the whole parse.
package parser

import (
	"pseudo/internal/ast"
	"pseudo/internal/diag"
	"pseudo/internal/lexer"
	"pseudo/internal/token"
	"pseudo/internal/value"
)

// Parser turns a token stream into an ast.Block.
type Parser struct {
	lex     *lexer.Lexer
	sink    diag.Sink
	interns *value.InternTable

	cur  token.Token
	prev token.Token
}

// New creates a Parser over src. interns is shared with the compiler so a
// string literal interned here and a runtime-produced string of equal
// content compare pointer-equal later.
func New(src string, sink diag.Sink, interns *value.InternTable) *Parser {
	p := &Parser{lex: lexer.New(src), sink: sink, interns: interns}
	p.advance()
	return p
}

// Parse consumes the whole token stream and returns the top-level block.
// Per-statement syntax errors are reported through the sink and that
// statement is skipped; Parse itself only fails to return a block if the
// lexer/sink were misconfigured, which does not happen in practice.
func (p *Parser) Parse() ast.Block {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.check(token.EOF) {
		if stmt := p.parseStatementRecovering(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return ast.Block{Stmts: stmts}
}

// --- token stream helpers ---

func (p *Parser) advance() {
	p.prev = p.cur
	p.cur = p.lex.Next()
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if !p.check(k) {
		p.fail("expected " + what + ", got " + p.cur.Kind.String())
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) fail(msg string) {
	// A lex-error token is reported by what is wrong with it rather than by
	// the production that ran into it.
	switch p.cur.Kind {
	case token.ERR_INVALID_HEX:
		msg = "malformed hex literal \"" + p.cur.Lexeme + "\""
	case token.ERR_INVALID_EXP:
		msg = "malformed exponent in number \"" + p.cur.Lexeme + "\""
	case token.ERR_UNTERMINATED_STRING:
		msg = "unterminated string literal"
	case token.ERR_UNKNOWN_CHAR:
		msg = "unknown character \"" + p.cur.Lexeme + "\""
	}
	panic(&SyntaxError{Line: p.cur.Line, Column: p.cur.Column, Message: msg})
}

func (p *Parser) skipNewlines() {
	for p.check(token.LF) {
		p.advance()
	}
}

// expectStatementEnd requires the current statement to end at a line break
// or end of input, then consumes any further blank lines.
func (p *Parser) expectStatementEnd() {
	if p.check(token.EOF) {
		return
	}
	if !p.check(token.LF) {
		p.fail("expected end of line, got " + p.cur.Kind.String())
	}
	p.skipNewlines()
}

// --- error recovery ---

// parseStatementRecovering parses one statement, catching a SyntaxError
// panic from anywhere below it, reporting it, and resynchronizing at the
// next line break (spec.md's panic_statement recovery).
func (p *Parser) parseStatementRecovering() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			p.sink.OnError(se.Line, se.Column, se.Message)
			p.panicStatement()
			stmt = nil
		}
	}()
	return p.parseStatement()
}

// panicStatement resynchronizes by discarding tokens until the next line
// break or end of input.
func (p *Parser) panicStatement() {
	for !p.check(token.LF) && !p.check(token.EOF) {
		p.advance()
	}
}

// panicComma resynchronizes an argument/parameter list by discarding
// tokens until the next comma, the closing paren, a line break, or end of
// input (spec.md's panic_comma recovery).
func (p *Parser) panicComma() {
	for !p.check(token.COMMA) && !p.check(token.RPAREN) && !p.check(token.LF) && !p.check(token.EOF) {
		p.advance()
	}
}

// --- statements ---

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.DECLARE:
		return p.parseDecl()
	case token.IDENT:
		return p.parseAssign()
	case token.OUTPUT:
		return p.parseOutput()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.FUNCTION:
		return p.parseFunction()
	default:
		p.fail("unexpected token " + p.cur.Kind.String())
		return nil
	}
}

func (p *Parser) parseDecl() ast.Stmt {
	p.advance() // DECLARE
	name := p.identFromToken(p.expect(token.IDENT, "variable name"))
	p.expect(token.COLON, "\":\"")
	typ := p.parseTypeName()
	p.expectStatementEnd()
	return ast.Decl{Name: name, Type: typ}
}

func (p *Parser) parseAssign() ast.Stmt {
	name := p.identFromToken(p.expect(token.IDENT, "variable name"))
	p.expect(token.ASSIGN, "\"<-\"")
	val := p.parseExpr()
	p.expectStatementEnd()
	return ast.Assign{Name: name, Value: val}
}

func (p *Parser) parseOutput() ast.Stmt {
	p.advance() // OUTPUT
	expr := p.parseExpr()
	p.expectStatementEnd()
	return ast.Output{Expr: expr}
}

func (p *Parser) parseIf() ast.Stmt {
	p.advance() // IF
	cond := p.parseExpr()
	p.expect(token.THEN, "THEN")
	p.expectStatementEnd()
	thenBlock := p.parseBlockUntil(token.ELSE, token.ENDIF)
	var elseBlock *ast.Block
	if p.match(token.ELSE) {
		p.expectStatementEnd()
		eb := p.parseBlockUntil(token.ENDIF)
		elseBlock = &eb
	}
	p.expect(token.ENDIF, "ENDIF")
	p.expectStatementEnd()
	return ast.If{Cond: cond, Then: thenBlock, Else: elseBlock}
}

func (p *Parser) parseWhile() ast.Stmt {
	p.advance() // WHILE
	cond := p.parseExpr()
	p.expectStatementEnd()
	body := p.parseBlockUntil(token.ENDWHILE)
	p.expect(token.ENDWHILE, "ENDWHILE")
	p.expectStatementEnd()
	return ast.While{Cond: cond, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.advance() // RETURN
	if p.check(token.LF) || p.check(token.EOF) {
		p.expectStatementEnd()
		return ast.Return{Expr: nil}
	}
	expr := p.parseExpr()
	p.expectStatementEnd()
	return ast.Return{Expr: expr}
}

func (p *Parser) parseFunction() ast.Stmt {
	p.advance() // FUNCTION
	name := p.identFromToken(p.expect(token.IDENT, "function name"))
	p.expect(token.LPAREN, "\"(\"")
	var params []ast.Param
	if !p.check(token.RPAREN) {
		params = p.parseParamList()
	}
	p.expect(token.RPAREN, "\")\"")
	var ret *ast.Ident
	if p.match(token.COLON) {
		t := p.parseTypeName()
		ret = &t
	}
	p.expectStatementEnd()
	body := p.parseBlockUntil(token.ENDFUNCTION)
	p.expect(token.ENDFUNCTION, "ENDFUNCTION")
	p.expectStatementEnd()
	return ast.Function{Name: name, Params: params, Return: ret, Body: body}
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	for {
		params = append(params, p.parseParam())
		if !p.match(token.COMMA) {
			break
		}
	}
	return params
}

func (p *Parser) parseParam() (param ast.Param) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			p.sink.OnError(se.Line, se.Column, se.Message)
			p.panicComma()
			param = ast.Param{}
		}
	}()
	name := p.identFromToken(p.expect(token.IDENT, "parameter name"))
	p.expect(token.COLON, "\":\"")
	typ := p.parseTypeName()
	return ast.Param{Name: name, Type: typ}
}

var typeNameKinds = map[token.Kind]bool{
	token.VOID: true, token.BOOLEAN: true, token.INTEGER: true,
	token.REAL_TYPE: true, token.STRING_TYPE: true, token.ARRAY: true,
}

func (p *Parser) parseTypeName() ast.Ident {
	if !typeNameKinds[p.cur.Kind] {
		p.fail("expected a type name, got " + p.cur.Kind.String())
	}
	t := p.cur
	p.advance()
	return ast.Ident{Name: t.Lexeme, Line: t.Line, Column: t.Column}
}

func (p *Parser) identFromToken(t token.Token) ast.Ident {
	return ast.Ident{Name: t.Lexeme, Line: t.Line, Column: t.Column}
}

// parseBlockUntil parses statements until the current token is one of
// enders (not consumed) or EOF.
func (p *Parser) parseBlockUntil(enders ...token.Kind) ast.Block {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atAny(enders...) && !p.check(token.EOF) {
		if stmt := p.parseStatementRecovering(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return ast.Block{Stmts: stmts}
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

// --- expressions (precedence, low to high: OR, AND, comparison, additive,
// multiplicative, unary (+ - NOT), primary) ---

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.check(token.OR) {
		op := p.cur
		p.advance()
		right := p.parseAnd()
		left = ast.BinaryOp{Op: "OR", Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseComparison()
	for p.check(token.AND) {
		op := p.cur
		p.advance()
		right := p.parseComparison()
		left = ast.BinaryOp{Op: "AND", Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left
}

var comparisonOps = map[token.Kind]string{
	token.EQ: "=", token.NEQ: "<>", token.LT: "<", token.GT: ">", token.LE: "<=", token.GE: ">=",
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if op, ok := comparisonOps[p.cur.Kind]; ok {
		opTok := p.cur
		p.advance()
		right := p.parseAdditive()
		return ast.BinaryOp{Op: op, Left: left, Right: right, Line: opTok.Line, Column: opTok.Column}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		opTok := p.cur
		op := "+"
		if opTok.Kind == token.MINUS {
			op = "-"
		}
		p.advance()
		right := p.parseMultiplicative()
		left = ast.BinaryOp{Op: op, Left: left, Right: right, Line: opTok.Line, Column: opTok.Column}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.check(token.STAR) || p.check(token.SLASH) {
		opTok := p.cur
		op := "*"
		if opTok.Kind == token.SLASH {
			op = "/"
		}
		p.advance()
		right := p.parseUnary()
		left = ast.BinaryOp{Op: op, Left: left, Right: right, Line: opTok.Line, Column: opTok.Column}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.check(token.MINUS) || p.check(token.PLUS) || p.check(token.NOT) {
		opTok := p.cur
		op := "+"
		switch opTok.Kind {
		case token.MINUS:
			op = "-"
		case token.NOT:
			op = "NOT"
		}
		p.advance()
		operand := p.parseUnary()
		return ast.UnaryOp{Op: op, Operand: operand, Line: opTok.Line, Column: opTok.Column}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case token.INT:
		t := p.cur
		p.advance()
		return ast.IntLit{Value: int32(t.Literal.(int64))}
	case token.INT_HEX:
		t := p.cur
		p.advance()
		return ast.IntLit{Value: int32(t.Literal.(int64))}
	case token.REAL:
		t := p.cur
		p.advance()
		return ast.RealLit{Value: float32(t.Literal.(float64))}
	case token.STRING:
		t := p.cur
		p.advance()
		raw, _ := t.Literal.(string)
		resolved := processEscapes(raw, func(pos int) {
			p.sink.OnWarn(t.Line, t.Column, "unknown escape sequence in string literal")
		})
		return ast.StringLit{Value: p.interns.Intern(resolved)}
	case token.TRUE:
		p.advance()
		return ast.BoolLit{Value: true}
	case token.FALSE:
		p.advance()
		return ast.BoolLit{Value: false}
	case token.IDENT:
		nameTok := p.cur
		p.advance()
		if p.check(token.LPAREN) {
			p.advance()
			var args []ast.Expr
			if !p.check(token.RPAREN) {
				args = p.parseArgList()
			}
			p.expect(token.RPAREN, "\")\"")
			return ast.Call{Callee: p.identFromToken(nameTok), Args: args}
		}
		return p.identFromToken(nameTok)
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN, "\")\"")
		return e
	default:
		p.fail("expected an expression, got " + p.cur.Kind.String())
		return nil
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	for {
		args = append(args, p.parseArg())
		if !p.match(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parseArg() (expr ast.Expr) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			p.sink.OnError(se.Line, se.Column, se.Message)
			p.panicComma()
			expr = ast.IntLit{Value: 0}
		}
	}()
	return p.parseExpr()
}
