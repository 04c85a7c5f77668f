// Package stixpat compiles STIX 2.x observation patterns into SQL WHERE
// clauses, one object type at a time. Comparisons against other object
// types drop out of the boolean tree; reference traversals become nested
// subselects.
package stixpat

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF       TokenType = iota
	TokenIdent               // bare words: paths segments, AND, LIKE, ...
	TokenString              // 'quoted literal'
	TokenTimestamp           // t'2023-01-01T00:00:00Z'
	TokenNumber              // integer or float literal
	TokenOp                  // = != <> < > <= >=
	TokenColon               // :
	TokenDot                 // .
	TokenComma               // ,
	TokenLBracket            // [
	TokenRBracket            // ]
	TokenLParen              // (
	TokenRParen              // )
	TokenStar                // *
	TokenError               // unexpected character
)

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a STIX pattern string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given pattern.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}
	case '.':
		l.pos++
		return Token{Type: TokenDot, Value: ".", Pos: start}
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}
	case '[':
		l.pos++
		return Token{Type: TokenLBracket, Value: "[", Pos: start}
	case ']':
		l.pos++
		return Token{Type: TokenRBracket, Value: "]", Pos: start}
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: start}
	case '\'':
		return l.scanString()
	case '=':
		l.pos++
		return Token{Type: TokenOp, Value: "=", Pos: start}
	case '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return Token{Type: TokenOp, Value: "!=", Pos: start}
		}
		l.pos++
		return Token{Type: TokenError, Value: "!", Pos: start}
	case '<':
		switch l.peekAt(1) {
		case '>':
			l.pos += 2
			return Token{Type: TokenOp, Value: "<>", Pos: start}
		case '=':
			l.pos += 2
			return Token{Type: TokenOp, Value: "<=", Pos: start}
		}
		l.pos++
		return Token{Type: TokenOp, Value: "<", Pos: start}
	case '>':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return Token{Type: TokenOp, Value: ">=", Pos: start}
		}
		l.pos++
		return Token{Type: TokenOp, Value: ">", Pos: start}
	}

	if ch == 't' && l.peekAt(1) == '\'' {
		l.pos++
		tok := l.scanString()
		tok.Type = TokenTimestamp
		tok.Pos = start
		return tok
	}
	if isDigit(ch) || (ch == '-' && isDigit(l.peekAt(1))) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdent()
	}
	l.pos++
	return Token{Type: TokenError, Value: string(ch), Pos: start}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// scanString scans a single-quoted literal. Both backslash escapes and
// doubled quotes continue the string; the stored value is unescaped.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == '\'' && l.peekAt(1) == '\'':
			sb.WriteByte('\'')
			l.pos += 2
		case ch == '\'':
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return Token{Type: TokenError, Value: fmt.Sprintf("unterminated string at %d", start), Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}
