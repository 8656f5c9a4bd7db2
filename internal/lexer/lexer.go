// Package lexer turns pseudocode source text into a pull-based stream of
// tokens. Callers pull one token at a time with Next, optionally peeking one
// token ahead with Peek.
package lexer

import (
	"strconv"
	"strings"

	"pseudo/internal/token"
)

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Lexer scans a source buffer into tokens on demand.
type Lexer struct {
	src []byte

	// pos is the index of the next unread byte.
	pos int
	// line/column describe the position of `pos`.
	line   int
	column int

	// peeked holds a token already scanned by Peek, returned (and cleared)
	// by the next call to Next.
	peeked *token.Token
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []byte(src), pos: 0, line: 1, column: 1}
}

// Next consumes and returns the next token in the stream.
func (l *Lexer) Next() token.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.scan()
}

// Peek returns the next token without consuming it. Calling Peek twice in a
// row without an intervening Next returns the same token.
func (l *Lexer) Peek() token.Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) current() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) at(offset int) byte {
	i := l.pos + offset
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) advance() byte {
	ch := l.current()
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) make(kind token.Kind, startPos, startLine, startCol int) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: string(l.src[startPos:l.pos]),
		Line:   startLine,
		Column: startCol,
		Offset: startPos,
		Length: l.pos - startPos,
	}
}

// scan skips whitespace/comments and lexes exactly one token.
func (l *Lexer) scan() token.Token {
	for {
		l.skipSpacesAndTabs()
		if l.atEnd() {
			break
		}
		if l.current() == '/' && l.at(1) == '/' {
			l.skipLineComment()
			continue
		}
		if l.current() == '/' && l.at(1) == '*' {
			l.skipBlockComment()
			continue
		}
		break
	}

	startPos, startLine, startCol := l.pos, l.line, l.column

	if l.atEnd() {
		return l.make(token.EOF, startPos, startLine, startCol)
	}

	ch := l.current()

	if ch == '\n' {
		l.advance()
		return l.make(token.LF, startPos, startLine, startCol)
	}

	if isLetter(ch) {
		return l.scanIdentifier(startPos, startLine, startCol)
	}

	if isDigit(ch) {
		return l.scanNumber(startPos, startLine, startCol)
	}

	if ch == '.' && isDigit(l.at(1)) {
		return l.scanNumber(startPos, startLine, startCol)
	}

	if ch == '"' {
		return l.scanString(startPos, startLine, startCol)
	}

	switch ch {
	case '(':
		l.advance()
		return l.make(token.LPAREN, startPos, startLine, startCol)
	case ')':
		l.advance()
		return l.make(token.RPAREN, startPos, startLine, startCol)
	case ':':
		l.advance()
		return l.make(token.COLON, startPos, startLine, startCol)
	case ',':
		l.advance()
		return l.make(token.COMMA, startPos, startLine, startCol)
	case '.':
		l.advance()
		return l.make(token.DOT, startPos, startLine, startCol)
	case '+':
		l.advance()
		return l.make(token.PLUS, startPos, startLine, startCol)
	case '*':
		l.advance()
		return l.make(token.STAR, startPos, startLine, startCol)
	case '/':
		l.advance()
		return l.make(token.SLASH, startPos, startLine, startCol)
	case '-':
		l.advance()
		return l.make(token.MINUS, startPos, startLine, startCol)
	case '=':
		l.advance()
		return l.make(token.EQ, startPos, startLine, startCol)
	case '<':
		l.advance()
		if l.current() == '-' {
			l.advance()
			return l.make(token.ASSIGN, startPos, startLine, startCol)
		}
		if l.current() == '>' {
			l.advance()
			return l.make(token.NEQ, startPos, startLine, startCol)
		}
		if l.current() == '=' {
			l.advance()
			return l.make(token.LE, startPos, startLine, startCol)
		}
		return l.make(token.LT, startPos, startLine, startCol)
	case '>':
		l.advance()
		if l.current() == '=' {
			l.advance()
			return l.make(token.GE, startPos, startLine, startCol)
		}
		return l.make(token.GT, startPos, startLine, startCol)
	}

	l.advance()
	return l.make(token.ERR_UNKNOWN_CHAR, startPos, startLine, startCol)
}

func (l *Lexer) skipSpacesAndTabs() {
	for !l.atEnd() {
		switch l.current() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.current() != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() {
	l.advance() // '/'
	l.advance() // '*'
	for !l.atEnd() {
		if l.current() == '*' && l.at(1) == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

func (l *Lexer) scanIdentifier(startPos, startLine, startCol int) token.Token {
	for !l.atEnd() && (isLetter(l.current()) || isDigit(l.current())) {
		l.advance()
	}
	tok := l.make(token.IDENT, startPos, startLine, startCol)
	if kind, ok := token.Keywords[tok.Lexeme]; ok {
		tok.Kind = kind
	}
	return tok
}

// scanNumber scans integer, hex integer, and real literals.
//
// Hex: 0[xX][0-9A-Fa-f]+. Malformed hex (no digits after 0x) is an error
// token so the parser can report a specific message.
//
// Real: digits, optional '.' + digits, optional [eE][+-]?digits. A malformed
// exponent (no digits after e/E, or after a sign) is an error token.
func (l *Lexer) scanNumber(startPos, startLine, startCol int) token.Token {
	if l.current() == '0' && (l.at(1) == 'x' || l.at(1) == 'X') {
		l.advance()
		l.advance()
		digitsStart := l.pos
		for !l.atEnd() && isHexDigit(l.current()) {
			l.advance()
		}
		if l.pos == digitsStart {
			return l.make(token.ERR_INVALID_HEX, startPos, startLine, startCol)
		}
		tok := l.make(token.INT_HEX, startPos, startLine, startCol)
		if v, err := strconv.ParseInt(tok.Lexeme[2:], 16, 64); err == nil {
			tok.Literal = v
		}
		return tok
	}

	for !l.atEnd() && isDigit(l.current()) {
		l.advance()
	}

	isReal := false
	if l.current() == '.' && isDigit(l.at(1)) {
		// "1.5" style: digits after the dot.
		isReal = true
		l.advance()
		for !l.atEnd() && isDigit(l.current()) {
			l.advance()
		}
	} else if l.current() == '.' && l.at(1) != '.' && (!isLetter(l.at(1)) || l.at(1) == 'e' || l.at(1) == 'E') {
		// "0." style: a bare trailing dot (e.g. "0.e5"), still a real. The
		// dot is consumed even when followed by "e"/"E" so the exponent
		// check below still fires; any other letter (e.g. "0.foo") is left
		// unconsumed so the dot lexes as its own DOT token.
		isReal = true
		l.advance()
	}

	if l.current() == 'e' || l.current() == 'E' {
		hasSign := l.at(1) == '+' || l.at(1) == '-'
		digitOffset := 1
		if hasSign {
			digitOffset = 2
		}
		if isDigit(l.at(digitOffset)) {
			isReal = true
			l.advance() // e/E
			if l.current() == '+' || l.current() == '-' {
				l.advance()
			}
			for !l.atEnd() && isDigit(l.current()) {
				l.advance()
			}
		} else {
			// "e" present but no digits follow it (with or without a
			// leading sign): malformed exponent.
			l.advance()
			if l.current() == '+' || l.current() == '-' {
				l.advance()
			}
			return l.make(token.ERR_INVALID_EXP, startPos, startLine, startCol)
		}
	}

	if isReal {
		tok := l.make(token.REAL, startPos, startLine, startCol)
		if v, err := strconv.ParseFloat(tok.Lexeme, 64); err == nil {
			tok.Literal = v
		}
		return tok
	}

	tok := l.make(token.INT, startPos, startLine, startCol)
	if v, err := strconv.ParseInt(tok.Lexeme, 10, 64); err == nil {
		tok.Literal = v
	}
	return tok
}

// scanString scans a double-quoted string literal. The \" escape is only
// recognized here so it does not end the literal; it is kept as the two raw
// bytes, and every escape (\" included) is resolved later by the parser
// (spec.md §4.2), since lexing just needs the raw span. A line break inside
// the literal is an error.
func (l *Lexer) scanString(startPos, startLine, startCol int) token.Token {
	l.advance() // opening quote
	var raw strings.Builder
	for {
		if l.atEnd() {
			return l.make(token.ERR_UNTERMINATED_STRING, startPos, startLine, startCol)
		}
		ch := l.current()
		if ch == '\n' {
			return l.make(token.ERR_UNTERMINATED_STRING, startPos, startLine, startCol)
		}
		if ch == '\\' && l.at(1) == '"' {
			raw.WriteByte('\\')
			raw.WriteByte('"')
			l.advance()
			l.advance()
			continue
		}
		if ch == '"' {
			l.advance()
			break
		}
		raw.WriteByte(ch)
		l.advance()
	}
	tok := l.make(token.STRING, startPos, startLine, startCol)
	tok.Literal = raw.String()
	return tok
}
