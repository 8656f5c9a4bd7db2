package lexer

import (
	"testing"

	"pseudo/internal/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexerKeywordsAndPunctuation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []token.Kind
	}{
		{
			name:   "declare with type",
			source: "DECLARE x : INTEGER",
			want:   []token.Kind{token.DECLARE, token.IDENT, token.COLON, token.INTEGER, token.EOF},
		},
		{
			name:   "assignment arrow",
			source: "x <- 5",
			want:   []token.Kind{token.IDENT, token.ASSIGN, token.INT, token.EOF},
		},
		{
			name:   "comparisons",
			source: "a <> b <= c >= d",
			want:   []token.Kind{token.IDENT, token.NEQ, token.IDENT, token.LE, token.IDENT, token.GE, token.IDENT, token.EOF},
		},
		{
			name:   "newline is a token",
			source: "a\nb",
			want:   []token.Kind{token.IDENT, token.LF, token.IDENT, token.EOF},
		},
		{
			name:   "line comment is skipped",
			source: "a // trailing comment\nb",
			want:   []token.Kind{token.IDENT, token.LF, token.IDENT, token.EOF},
		},
		{
			name:   "block comment is skipped",
			source: "a /* mid */ b",
			want:   []token.Kind{token.IDENT, token.IDENT, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(collect(tt.source))
			if len(got) != len(tt.want) {
				t.Fatalf("token count mismatch - got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   token.Kind
	}{
		{"decimal int", "42", token.INT},
		{"hex int", "0x2A", token.INT_HEX},
		{"malformed hex", "0x", token.ERR_INVALID_HEX},
		{"real with fraction", "3.14", token.REAL},
		{"real with exponent", "1e10", token.REAL},
		{"real with signed exponent", "1e-10", token.REAL},
		{"malformed exponent", "1e", token.ERR_INVALID_EXP},
		{"leading-dot real", ".5", token.REAL},
		{"bare trailing dot with exponent", "0.e5", token.REAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collect(tt.source)
			if toks[0].Kind != tt.want {
				t.Errorf("got %s, want %s", toks[0].Kind, tt.want)
			}
		})
	}
}

// TestLexerLeadingDotRealIsOneToken guards against the leading-dot case
// splitting into a DOT token followed by an INT, which is what happens if
// scan()'s dispatch only routes a digit (not a dot-then-digit) to
// scanNumber.
func TestLexerLeadingDotRealIsOneToken(t *testing.T) {
	toks := collect(".5")
	if len(toks) != 2 || toks[0].Kind != token.REAL || toks[1].Kind != token.EOF {
		t.Fatalf("got %v, want a single REAL token", kinds(toks))
	}
	if toks[0].Literal != 0.5 {
		t.Errorf("Literal = %v, want 0.5", toks[0].Literal)
	}
}

// TestLexerBareTrailingDotBeforeExponentIsOneToken guards against "0.e5"
// leaving its dot unconsumed because "e" is a letter, which splits the
// token stream into INT, DOT, IDENT instead of one REAL.
func TestLexerBareTrailingDotBeforeExponentIsOneToken(t *testing.T) {
	toks := collect("0.e5")
	if len(toks) != 2 || toks[0].Kind != token.REAL || toks[1].Kind != token.EOF {
		t.Fatalf("got %v, want a single REAL token", kinds(toks))
	}
}

func TestLexerStrings(t *testing.T) {
	toks := collect(`"hello \"world\""`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("got %s, want STRING", toks[0].Kind)
	}
	want := `hello \"world\"`
	if toks[0].Literal != want {
		t.Errorf("got %q, want %q", toks[0].Literal, want)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	toks := collect(`"unterminated`)
	if toks[0].Kind != token.ERR_UNTERMINATED_STRING {
		t.Errorf("got %s, want ERR_UNTERMINATED_STRING", toks[0].Kind)
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := New("a b")
	first := l.Peek()
	second := l.Peek()
	if first != second {
		t.Fatalf("Peek should be idempotent: got %v then %v", first, second)
	}
	if l.Next() != first {
		t.Fatalf("Next after Peek should return the peeked token")
	}
	if l.Next().Lexeme != "b" {
		t.Fatalf("Next should advance past the peeked token")
	}
}
