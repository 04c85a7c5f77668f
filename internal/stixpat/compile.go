package stixpat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scorchdb/scorch/internal/sco"
)

// reflistTable holds list-valued references as
// (ref_name, source_ref, target_ref) rows.
const reflistTable = "__reflist"

// Compiler translates patterns to WHERE-clause text for one object type at
// a time. The zero value uses the built-in reference mappings.
type Compiler struct {
	dict *sco.Dictionary
}

// NewCompiler builds a compiler; dict may be nil for the built-in
// reference mappings.
func NewCompiler(dict *sco.Dictionary) *Compiler {
	if dict == nil {
		dict = sco.NewDictionary(nil)
	}
	return &Compiler{dict: dict}
}

var defaultCompiler = Compiler{dict: sco.NewDictionary(nil)}

// Compile translates pattern into WHERE-clause text against scoType's
// table using the built-in reference mappings. Comparisons on other object
// types drop out; a pattern that mentions scoType nowhere compiles to the
// empty string.
func Compile(pattern, scoType string) (string, error) {
	return defaultCompiler.Compile(pattern, scoType)
}

// Compile translates pattern into WHERE-clause text against scoType's
// table.
func (c *Compiler) Compile(pattern, scoType string) (string, error) {
	pat, err := Parse(pattern)
	if err != nil {
		return "", err
	}
	text, err := c.obsText(pat.Expr, scoType)
	if err != nil {
		var unsupported *UnsupportedOperatorError
		if errors.As(err, &unsupported) {
			return "", err
		}
		return "", &PatternError{Pattern: pattern, Err: err}
	}
	return text, nil
}

func (c *Compiler) obsText(expr ObsExpr, scoType string) (string, error) {
	switch e := expr.(type) {
	case *Obs:
		return c.exprText(e.Expr, scoType)
	case *ObsCombo:
		left, err := c.obsText(e.Left, scoType)
		if err != nil {
			return "", err
		}
		right, err := c.obsText(e.Right, scoType)
		if err != nil {
			return "", err
		}
		return joinBool(left, e.Op, right), nil
	}
	return "", fmt.Errorf("unknown observation expression %T", expr)
}

func (c *Compiler) exprText(expr Expr, scoType string) (string, error) {
	switch e := expr.(type) {
	case *Comparison:
		return c.comparisonText(e, scoType)
	case *BoolExpr:
		left, err := c.exprText(e.Left, scoType)
		if err != nil {
			return "", err
		}
		right, err := c.exprText(e.Right, scoType)
		if err != nil {
			return "", err
		}
		return joinBool(left, e.Op, right), nil
	case *Group:
		inner, err := c.exprText(e.Expr, scoType)
		if err != nil {
			return "", err
		}
		if inner == "" {
			return "", nil
		}
		return "(" + inner + ")", nil
	}
	return "", fmt.Errorf("unknown expression %T", expr)
}

// joinBool combines two compiled fragments; an elided side drops out
// instead of leaving a dangling operator.
func joinBool(left, op, right string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	}
	return left + " " + op + " " + right
}

// comparisonText compiles one comparison, or "" when the path's object
// type does not match the table being compiled for.
func (c *Compiler) comparisonText(cmp *Comparison, scoType string) (string, error) {
	pathType, prop, found := strings.Cut(cmp.Path, ":")
	if !found || pathType != scoType {
		return "", nil
	}

	termType := pathType
	var rels []sco.RelLink
	if strings.Contains(prop, "_ref.") || strings.Contains(prop, "_refs") {
		links := c.dict.ParseProp(pathType, prop)
		if links == nil {
			return "", fmt.Errorf("unknown reference in path %q", cmp.Path)
		}
		var leafParts []string
		for _, link := range links {
			switch l := link.(type) {
			case sco.RelLink:
				rels = append(rels, l)
				termType = l.Target
				leafParts = nil
			case sco.NodeLink:
				leafParts = append(leafParts, l.Prop)
			}
		}
		prop = strings.Join(leafParts, ".")
		if prop == "" {
			prop = "id"
		}
	}

	text, err := c.leafText(cmp, termType, prop)
	if err != nil {
		return "", err
	}
	for i := len(rels) - 1; i >= 0; i-- {
		text = wrapRef(rels[i], text)
	}
	return text, nil
}

// wrapRef nests a compiled fragment one reference hop outward. Single refs
// select matching target ids; list refs go through the reference-list
// table's ref_name/source_ref/target_ref triple.
func wrapRef(rel sco.RelLink, inner string) string {
	sub := `(SELECT "id" FROM ` + quote(rel.Target) + ` WHERE ` + inner + `)`
	if strings.HasSuffix(rel.Prop, "_refs") {
		return `"id" IN (SELECT "source_ref" FROM ` + quote(reflistTable) +
			` WHERE ("ref_name" = ` + sqlString(rel.Prop) + `) AND ("target_ref" IN ` + sub + `))`
	}
	return quote(rel.Prop) + " IN " + sub
}

// leafText compiles the terminal comparison once reference hops are peeled
// off. termType is the object type holding prop.
func (c *Compiler) leafText(cmp *Comparison, termType, prop string) (string, error) {
	neg := ""
	if cmp.Negated {
		neg = "NOT"
	}
	rhs := renderLiteral(cmp.Value)

	switch cmp.Op {
	case "ISSUBSET":
		if termType != "ipv4-addr" {
			return "", &UnsupportedOperatorError{Op: cmp.Op, ScoType: termType}
		}
		return joinSQL(neg, `(in_subnet(`+quote(prop)+`, `+rhs+`))`), nil
	case "ISSUPERSET":
		if termType != "ipv4-addr" {
			return "", &UnsupportedOperatorError{Op: cmp.Op, ScoType: termType}
		}
		return joinSQL(neg, `(in_subnet(`+rhs+`, `+quote(prop)+`))`), nil
	case "MATCHES":
		fn := "match"
		if prop == "payload_bin" {
			fn = "match_bin"
		}
		return joinSQL(neg, fn+`(`+rhs+`, `+quote(prop)+`)`), nil
	}

	if cmp.Op == "LIKE" && prop == "payload_bin" {
		return joinSQL(neg, `like_bin(`+rhs+`, `+quote(prop)+`)`), nil
	}

	if base, sub, isList := strings.Cut(prop, "[*]"); isList {
		return c.listLeafText(cmp, neg, base, strings.TrimPrefix(sub, "."))
	}

	return joinSQL(quote(prop), neg, cmp.Op, rhs), nil
}

// listLeafText compiles a comparison on a list-valued property. Lists are
// stored as serialized JSON text, so membership is a substring match: a
// bare list compares the element, a sub-key after the marker matches the
// serialized "key":"value" fragment.
func (c *Compiler) listLeafText(cmp *Comparison, neg, base, subKey string) (string, error) {
	var like string
	switch cmp.Op {
	case "=":
		like = "LIKE"
	case "!=", "<>":
		like = "NOT LIKE"
	default:
		return "", &UnsupportedOperatorError{Op: cmp.Op, ScoType: base + "[*]"}
	}

	var fragment string
	if subKey == "" {
		raw, err := rawText(cmp.Value)
		if err != nil {
			return "", err
		}
		fragment = "%" + raw + "%"
	} else {
		encoded, err := jsonFragment(subKey, cmp.Value)
		if err != nil {
			return "", err
		}
		fragment = "%" + encoded + "%"
	}
	return joinSQL(quote(base), neg, like, sqlString(fragment)), nil
}

// jsonFragment builds the serialized form of one key/value pair as it
// appears inside a stored JSON list.
func jsonFragment(key string, value Literal) (string, error) {
	switch v := value.(type) {
	case StringLit:
		return `"` + key + `":"` + v.Value + `"`, nil
	case NumberLit:
		return `"` + key + `":` + v.Text, nil
	}
	return "", fmt.Errorf("cannot match %T against list sub-key %q", value, key)
}

func renderLiteral(lit Literal) string {
	switch v := lit.(type) {
	case StringLit:
		return sqlString(v.Value)
	case NumberLit:
		return v.Text
	case TimestampLit:
		return sqlString(v.Value)
	case ListLit:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = renderLiteral(item)
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return ""
}

// rawText returns a literal's unquoted text for wildcard wrapping.
func rawText(lit Literal) (string, error) {
	switch v := lit.(type) {
	case StringLit:
		return v.Value, nil
	case NumberLit:
		return v.Text, nil
	}
	return "", fmt.Errorf("cannot wildcard-match %T", lit)
}

// sqlString renders a SQL string literal with quote doubling.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quote(s string) string {
	return `"` + s + `"`
}

// joinSQL joins non-empty fragments with single spaces.
func joinSQL(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
