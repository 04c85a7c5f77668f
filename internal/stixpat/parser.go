package stixpat

import (
	"fmt"
	"strings"
)

// Parser parses STIX patterns into Pattern ASTs.
type Parser struct {
	lexer *Lexer
	curr  Token
	peek  Token
}

// Parse parses a STIX pattern. Failures come back as *PatternError
// wrapping the pattern text.
func Parse(input string) (*Pattern, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	p.advance()
	pat, err := p.parsePattern()
	if err != nil {
		return nil, &PatternError{Pattern: input, Err: err}
	}
	return pat, nil
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) error {
	if p.curr.Type != t {
		return fmt.Errorf("unexpected %q at pos %d", p.curr.Value, p.curr.Pos)
	}
	p.advance()
	return nil
}

// keyword reports whether the current token is the given bare word.
// STIX keywords are case-sensitive upper case.
func (p *Parser) keyword(word string) bool {
	return p.curr.Type == TokenIdent && p.curr.Value == word
}

func (p *Parser) parsePattern() (*Pattern, error) {
	expr, err := p.parseObsExpr()
	if err != nil {
		return nil, err
	}
	var quals []Qualifier
	for p.curr.Type != TokenEOF {
		q, err := p.parseQualifier()
		if err != nil {
			return nil, err
		}
		quals = append(quals, q)
	}
	return &Pattern{Expr: expr, Qualifiers: quals}, nil
}

// parseObsExpr parses bracketed observations combined with AND/OR.
// FOLLOWEDBY expresses event ordering, which a single WHERE clause cannot,
// so it is rejected here.
func (p *Parser) parseObsExpr() (ObsExpr, error) {
	left, err := p.parseObs()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") || p.keyword("OR") || p.keyword("FOLLOWEDBY") {
		op := p.curr.Value
		if op == "FOLLOWEDBY" {
			return nil, fmt.Errorf("FOLLOWEDBY is not supported")
		}
		p.advance()
		right, err := p.parseObs()
		if err != nil {
			return nil, err
		}
		left = &ObsCombo{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseObs() (ObsExpr, error) {
	if err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}
	expr, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}
	return &Obs{Expr: expr}, nil
}

// parseOrExpr parses OR combinations (lowest precedence).
func (p *Parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BoolExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Expr, error) {
	left, err := p.parseUnit()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.advance()
		right, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		left = &BoolExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnit() (Expr, error) {
	if p.curr.Type == TokenLParen {
		p.advance()
		inner, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &Group{Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}

	negated := false
	if p.keyword("NOT") {
		negated = true
		p.advance()
	}

	var op string
	switch {
	case p.curr.Type == TokenOp:
		op = p.curr.Value
		p.advance()
	case p.keyword("LIKE"), p.keyword("MATCHES"), p.keyword("IN"),
		p.keyword("ISSUBSET"), p.keyword("ISSUPERSET"):
		op = p.curr.Value
		p.advance()
	default:
		return nil, fmt.Errorf("expected comparison operator, got %q at pos %d", p.curr.Value, p.curr.Pos)
	}

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &Comparison{Path: path, Negated: negated, Op: op, Value: value}, nil
}

// parsePath parses an object path: type, colon, then dotted segments with
// optional [*] list markers. Quoted segments (hash names) are kept quoted.
func (p *Parser) parsePath() (string, error) {
	if p.curr.Type != TokenIdent {
		return "", fmt.Errorf("expected object path, got %q at pos %d", p.curr.Value, p.curr.Pos)
	}
	var sb strings.Builder
	sb.WriteString(p.curr.Value)
	p.advance()
	if err := p.expect(TokenColon); err != nil {
		return "", err
	}
	sb.WriteByte(':')
	for {
		switch p.curr.Type {
		case TokenIdent:
			sb.WriteString(p.curr.Value)
			p.advance()
		case TokenString:
			sb.WriteString("'" + p.curr.Value + "'")
			p.advance()
		default:
			return "", fmt.Errorf("expected path segment, got %q at pos %d", p.curr.Value, p.curr.Pos)
		}
		if p.curr.Type == TokenLBracket && p.peek.Type == TokenStar {
			p.advance()
			p.advance()
			if err := p.expect(TokenRBracket); err != nil {
				return "", err
			}
			sb.WriteString("[*]")
		}
		if p.curr.Type != TokenDot {
			break
		}
		sb.WriteByte('.')
		p.advance()
	}
	return sb.String(), nil
}

func (p *Parser) parseLiteral() (Literal, error) {
	switch p.curr.Type {
	case TokenString:
		v := p.curr.Value
		p.advance()
		return StringLit{Value: v}, nil
	case TokenNumber:
		v := p.curr.Value
		p.advance()
		return NumberLit{Text: v}, nil
	case TokenTimestamp:
		v := p.curr.Value
		p.advance()
		return TimestampLit{Value: v}, nil
	case TokenLParen:
		p.advance()
		var items []Literal
		for {
			item, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.curr.Type != TokenComma {
				break
			}
			p.advance()
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return ListLit{Items: items}, nil
	}
	return nil, fmt.Errorf("expected literal, got %q at pos %d", p.curr.Value, p.curr.Pos)
}

func (p *Parser) parseQualifier() (Qualifier, error) {
	switch {
	case p.keyword("WITHIN"):
		p.advance()
		if p.curr.Type != TokenNumber {
			return Qualifier{}, fmt.Errorf("expected number after WITHIN at pos %d", p.curr.Pos)
		}
		n := p.curr.Value
		p.advance()
		if !p.keyword("SECONDS") {
			return Qualifier{}, fmt.Errorf("expected SECONDS at pos %d", p.curr.Pos)
		}
		p.advance()
		return Qualifier{Kind: "WITHIN", Value: n}, nil
	case p.keyword("REPEATS"):
		p.advance()
		if p.curr.Type != TokenNumber {
			return Qualifier{}, fmt.Errorf("expected number after REPEATS at pos %d", p.curr.Pos)
		}
		n := p.curr.Value
		p.advance()
		if !p.keyword("TIMES") {
			return Qualifier{}, fmt.Errorf("expected TIMES at pos %d", p.curr.Pos)
		}
		p.advance()
		return Qualifier{Kind: "REPEATS", Value: n}, nil
	case p.keyword("START"):
		p.advance()
		if p.curr.Type != TokenTimestamp {
			return Qualifier{}, fmt.Errorf("expected timestamp after START at pos %d", p.curr.Pos)
		}
		start := p.curr.Value
		p.advance()
		if !p.keyword("STOP") {
			return Qualifier{}, fmt.Errorf("expected STOP at pos %d", p.curr.Pos)
		}
		p.advance()
		if p.curr.Type != TokenTimestamp {
			return Qualifier{}, fmt.Errorf("expected timestamp after STOP at pos %d", p.curr.Pos)
		}
		stop := p.curr.Value
		p.advance()
		return Qualifier{Kind: "START", Value: start, Stop: stop}, nil
	}
	return Qualifier{}, fmt.Errorf("unexpected %q at pos %d", p.curr.Value, p.curr.Pos)
}
