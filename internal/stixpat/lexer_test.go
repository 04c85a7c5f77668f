package stixpat

import (
	"reflect"
	"testing"
)

func lexAll(input string) []Token {
	lx := NewLexer(input)
	var toks []Token
	for {
		tok := lx.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return toks
		}
	}
}

func lexTypes(input string) []TokenType {
	toks := lexAll(input)
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexerTokenTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "comparison",
			input: "[ipv4-addr:value = '9.9.9.9']",
			want: []TokenType{
				TokenLBracket, TokenIdent, TokenColon, TokenIdent,
				TokenOp, TokenString, TokenRBracket, TokenEOF,
			},
		},
		{
			name:  "list marker",
			input: "protocols[*]",
			want:  []TokenType{TokenIdent, TokenLBracket, TokenStar, TokenRBracket, TokenEOF},
		},
		{
			name:  "in list",
			input: "IN (80,443)",
			want: []TokenType{
				TokenIdent, TokenLParen, TokenNumber, TokenComma,
				TokenNumber, TokenRParen, TokenEOF,
			},
		},
		{
			name:  "timestamp",
			input: "t'2023-01-01T00:00:00Z'",
			want:  []TokenType{TokenTimestamp, TokenEOF},
		},
		{
			name:  "unterminated string",
			input: "'abc",
			want:  []TokenType{TokenError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lexTypes(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lexTypes(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'plain'`, "plain"},
		{`'it''s'`, "it's"},
		{`'a\'b'`, "a'b"},
		{`'a\\b'`, `a\b`},
	}
	for _, tt := range tests {
		toks := lexAll(tt.input)
		if toks[0].Type != TokenString {
			t.Errorf("lex(%q) type = %v, want TokenString", tt.input, toks[0].Type)
			continue
		}
		if toks[0].Value != tt.want {
			t.Errorf("lex(%q) value = %q, want %q", tt.input, toks[0].Value, tt.want)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll("= != <> < <= > >=")
	want := []string{"=", "!=", "<>", "<", "<=", ">", ">="}
	if len(toks) != len(want)+1 {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want)+1)
	}
	for i, w := range want {
		if toks[i].Type != TokenOp || toks[i].Value != w {
			t.Errorf("token %d = %v %q, want TokenOp %q", i, toks[i].Type, toks[i].Value, w)
		}
	}
}

func TestParseQualifiers(t *testing.T) {
	pat, err := Parse("[ipv4-addr:value = '9.9.9.9'] WITHIN 300 SECONDS REPEATS 5 TIMES")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pat.Qualifiers) != 2 {
		t.Fatalf("got %d qualifiers, want 2", len(pat.Qualifiers))
	}
	if pat.Qualifiers[0].Kind != "WITHIN" || pat.Qualifiers[0].Value != "300" {
		t.Errorf("qualifier 0 = %+v, want WITHIN 300", pat.Qualifiers[0])
	}
	if pat.Qualifiers[1].Kind != "REPEATS" || pat.Qualifiers[1].Value != "5" {
		t.Errorf("qualifier 1 = %+v, want REPEATS 5", pat.Qualifiers[1])
	}
}

func TestParsePrecedence(t *testing.T) {
	pat, err := Parse("[a:x = 1 OR a:y = 2 AND a:z = 3]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obs, ok := pat.Expr.(*Obs)
	if !ok {
		t.Fatalf("top = %T, want *Obs", pat.Expr)
	}
	or, ok := obs.Expr.(*BoolExpr)
	if !ok || or.Op != "OR" {
		t.Fatalf("root = %T, want OR BoolExpr", obs.Expr)
	}
	if _, ok := or.Right.(*BoolExpr); !ok {
		t.Errorf("OR right = %T, want AND BoolExpr", or.Right)
	}
}
