package stixpat

// Pattern is a parsed STIX pattern: an observation expression plus any
// trailing qualifiers. Qualifiers are parsed so the grammar is complete,
// but compilation ignores them; the surrounding query applies time windows.
type Pattern struct {
	Expr       ObsExpr
	Qualifiers []Qualifier
}

// ObsExpr is an observation-level expression. The set of variants is
// closed: a single bracketed observation or a boolean combination of two.
type ObsExpr interface {
	obsNode()
}

// Obs is one bracketed observation expression.
type Obs struct {
	Expr Expr
}

func (*Obs) obsNode() {}

// ObsCombo combines two observation expressions with AND or OR.
type ObsCombo struct {
	Op    string
	Left  ObsExpr
	Right ObsExpr
}

func (*ObsCombo) obsNode() {}

// Expr is a comparison-level expression inside an observation.
type Expr interface {
	exprNode()
}

// Comparison is one object-path comparison.
type Comparison struct {
	Path    string
	Negated bool
	Op      string
	Value   Literal
}

func (*Comparison) exprNode() {}

// BoolExpr combines two expressions with AND or OR.
type BoolExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BoolExpr) exprNode() {}

// Group is a parenthesized expression. Kept explicit so compiled output
// preserves the author's parentheses.
type Group struct {
	Expr Expr
}

func (*Group) exprNode() {}

// Literal is a comparison right-hand side.
type Literal interface {
	literalNode()
}

// StringLit is a quoted string literal, unescaped.
type StringLit struct {
	Value string
}

func (StringLit) literalNode() {}

// NumberLit is a numeric literal, kept as source text.
type NumberLit struct {
	Text string
}

func (NumberLit) literalNode() {}

// TimestampLit is a t'...' literal.
type TimestampLit struct {
	Value string
}

func (TimestampLit) literalNode() {}

// ListLit is a parenthesized literal list, for IN.
type ListLit struct {
	Items []Literal
}

func (ListLit) literalNode() {}

// Qualifier is a parsed observation qualifier: WITHIN n SECONDS,
// REPEATS n TIMES, or START t'...' STOP t'...'.
type Qualifier struct {
	Kind  string
	Value string
	Stop  string
}
