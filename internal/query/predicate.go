package query

import (
	"fmt"
	"strings"

	"github.com/scorchdb/scorch/internal/validate"
)

// Comparison operators allowed in predicates and join conditions. Anything
// else fails at construction time, before SQL text exists.
var compOps = map[string]bool{
	"=": true, "<>": true, "!=": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"LIKE": true, "IN": true, "IS": true, "IS NOT": true,
}

// Boolean combinators for compound predicates and filters.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

// Predicate is a single comparison, or a binary AND/OR tree of comparisons.
// The right-hand side may be a literal scalar, a list of scalars (for IN), a
// Column, or a *Query for IN-subselects. Scalar values are always bound as
// parameters, never interpolated.
type Predicate struct {
	lhs Column
	op  string
	rhs any

	// compound tree; set when op is AND/OR
	left  *Predicate
	right *Predicate
}

// NewPredicate builds a validated predicate. lhs is a column name, a STIX
// property path, or a Column; op must be on the comparison allow-list (or
// AND/OR to combine two predicates). A "null"/"NULL"/nil rhs is rewritten
// to IS [NOT] NULL and is only legal with =, != or <>.
//
// A list-valued property path ("foo[*]") is rewritten to a LIKE match with
// the value wrapped in % wildcards: list-typed columns are stored as
// serialized JSON text, so membership is a substring match by contract.
func NewPredicate(lhs any, op string, rhs any) (*Predicate, error) {
	if op == OpAnd || op == OpOr {
		l, lok := lhs.(*Predicate)
		r, rok := rhs.(*Predicate)
		if !lok || !rok {
			return nil, &InvalidPredicateOperatorError{Op: op}
		}
		return &Predicate{op: op, left: l, right: r}, nil
	}
	if !compOps[op] {
		return nil, &InvalidComparisonOperatorError{Op: op}
	}

	var col Column
	switch v := lhs.(type) {
	case Column:
		col = v
	case string:
		c, err := NewColumn(v, "", "")
		if err != nil {
			return nil, err
		}
		col = c
	default:
		return nil, fmt.Errorf("predicate lhs must be a column name or Column, got %T", lhs)
	}

	if isNullValue(rhs) {
		if op != "=" && op != "!=" && op != "<>" {
			return nil, &InvalidComparisonOperatorError{Op: op}
		}
		col.Name = strings.TrimSuffix(col.Name, "[*]")
		return &Predicate{lhs: col, op: op, rhs: nil}, nil
	}

	if strings.HasSuffix(col.Name, "[*]") {
		col.Name = strings.TrimSuffix(col.Name, "[*]")
		switch rhs.(type) {
		case *Query, *Predicate, []any:
			// Subqueries and predicate trees are handled below; IN lists
			// keep their elements.
		default:
			// List columns hold serialized JSON text, so membership is a
			// substring match for any scalar, not just strings.
			rhs = "%" + fmt.Sprint(rhs) + "%"
			switch op {
			case "=":
				op = "LIKE"
			case "!=", "<>":
				op = "NOT LIKE"
			}
		}
	}

	switch rhs.(type) {
	case *Predicate:
		return nil, &InvalidComparisonOperatorError{Op: op}
	}

	return &Predicate{lhs: col, op: op, rhs: rhs}, nil
}

// isNullValue reports whether rhs denotes SQL NULL.
func isNullValue(rhs any) bool {
	if rhs == nil {
		return true
	}
	s, ok := rhs.(string)
	return ok && (s == "null" || s == "NULL")
}

// setTable qualifies the predicate's columns with a table name, descending
// into compound trees. Columns that already carry a qualifier keep it.
func (p *Predicate) setTable(table string) {
	if p.left != nil {
		p.left.setTable(table)
		p.right.setTable(table)
		return
	}
	if p.lhs.Table == "" {
		p.lhs.Table = table
	}
	if c, ok := p.rhs.(Column); ok && c.Table == "" {
		c.Table = table
		p.rhs = c
	}
}

// Values returns the parameter values this predicate binds, in render
// order.
func (p *Predicate) Values() []any {
	r := &renderer{ph: Question}
	_, _ = p.renderInto(r)
	return r.values
}

// Render produces the SQL text and bound values for this predicate alone.
func (p *Predicate) Render(ph Placeholder) (string, []any, error) {
	r := &renderer{ph: ph}
	text, err := p.renderInto(r)
	if err != nil {
		return "", nil, err
	}
	return text, r.values, nil
}

func (p *Predicate) renderInto(r *renderer) (string, error) {
	if p.left != nil {
		lt, err := p.left.renderInto(r)
		if err != nil {
			return "", err
		}
		rt, err := p.right.renderInto(r)
		if err != nil {
			return "", err
		}
		return "(" + lt + " " + p.op + " " + rt + ")", nil
	}

	lhs := p.lhs.String()

	if p.rhs == nil {
		switch p.op {
		case "!=", "<>":
			return "(" + lhs + " IS NOT NULL)", nil
		default: // construction only lets "=" through
			return "(" + lhs + " IS NULL)", nil
		}
	}

	switch rhs := p.rhs.(type) {
	case Column:
		return "(" + lhs + " " + p.op + " " + rhs.String() + ")", nil
	case *Query:
		text, err := rhs.renderInto(r)
		if err != nil {
			return "", err
		}
		return "(" + lhs + " " + p.op + " (" + text + "))", nil
	case []any:
		phs := make([]string, len(rhs))
		for i, v := range rhs {
			phs[i] = r.bind(v)
		}
		return "(" + lhs + " " + p.op + " (" + strings.Join(phs, ", ") + "))", nil
	case []string:
		phs := make([]string, len(rhs))
		for i, v := range rhs {
			phs[i] = r.bind(v)
		}
		return "(" + lhs + " " + p.op + " (" + strings.Join(phs, ", ") + "))", nil
	default:
		return "(" + lhs + " " + p.op + " " + r.bind(p.rhs) + ")", nil
	}
}

// Filter is an ordered set of predicates joined by one boolean operator.
// Appending several Filters to a query conjoins them with AND.
type Filter struct {
	preds []*Predicate
	op    string
}

// NewFilter builds a filter over preds. op is OpAnd or OpOr; empty means
// AND.
func NewFilter(preds []*Predicate, op string) (*Filter, error) {
	if op == "" {
		op = OpAnd
	}
	if op != OpAnd && op != OpOr {
		return nil, &InvalidPredicateOperatorError{Op: op}
	}
	return &Filter{preds: preds, op: op}, nil
}

// SetTable qualifies every predicate column in the filter with a table or
// alias name, for disambiguation after joins.
func (f *Filter) SetTable(table string) error {
	if err := validate.Name(table); err != nil {
		return err
	}
	for _, p := range f.preds {
		p.setTable(table)
	}
	return nil
}

func (f *Filter) renderInto(r *renderer) (string, error) {
	parts := make([]string, 0, len(f.preds))
	for _, p := range f.preds {
		text, err := p.renderInto(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	result := strings.Join(parts, " "+f.op+" ")
	if f.op == OpOr {
		return "(" + result + ")", nil
	}
	return result, nil
}
