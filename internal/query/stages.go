package query

import (
	"fmt"
	"strings"

	"github.com/scorchdb/scorch/internal/validate"
)

// Stage is a component of a SELECT statement. The set of stages is closed:
// Append matches exhaustively on the variants below and rejects anything
// else.
type Stage interface {
	stageNode()
}

// Table names the base table or view of a query.
type Table struct {
	Name string
}

// NewTable builds a validated base-table stage.
func NewTable(name string) (Table, error) {
	if err := validate.Name(name); err != nil {
		return Table{}, err
	}
	return Table{Name: name}, nil
}

func (Table) stageNode() {}

// Join directions allowed in a join stage.
var joinHows = map[string]bool{
	"INNER": true, "OUTER": true, "LEFT OUTER": true,
	"RIGHT OUTER": true, "FULL OUTER": true, "CROSS": true,
}

// JoinSpec carries the arguments for NewJoin. How defaults to INNER. LHS is
// the left-hand table; when empty it is resolved at render time to the
// previous join's table, or the query's base table for the first join. On
// replaces the simple equality condition with arbitrary predicates.
type JoinSpec struct {
	Table    string
	LeftCol  string
	Op       string
	RightCol string
	How      string
	Alias    string
	LHS      string
	On       []*Predicate
}

// Join binds another table to the query.
type Join struct {
	name     string
	leftCol  string
	op       string
	rightCol string
	how      string
	alias    string
	lhs      string
	on       []*Predicate
}

// NewJoin builds a validated join stage from spec.
func NewJoin(spec JoinSpec) (*Join, error) {
	if err := validate.Name(spec.Table); err != nil {
		return nil, err
	}
	if err := validate.Name(spec.Alias); err != nil {
		return nil, err
	}
	if err := validate.Name(spec.LHS); err != nil {
		return nil, err
	}
	how := strings.ToUpper(spec.How)
	if how == "" {
		how = "INNER"
	}
	if !joinHows[how] {
		return nil, &InvalidQueryError{Reason: fmt.Sprintf("unknown join type %q", spec.How)}
	}
	if spec.On == nil {
		if !compOps[spec.Op] {
			return nil, &InvalidJoinOperatorError{Op: spec.Op}
		}
		if err := validate.Path(spec.LeftCol); err != nil {
			return nil, err
		}
		if err := validate.Path(spec.RightCol); err != nil {
			return nil, err
		}
	}
	return &Join{
		name:     spec.Table,
		leftCol:  spec.LeftCol,
		op:       spec.Op,
		rightCol: spec.RightCol,
		how:      how,
		alias:    spec.Alias,
		lhs:      spec.LHS,
		on:       spec.On,
	}, nil
}

func (*Join) stageNode() {}

// Name returns the joined table name.
func (j *Join) Name() string { return j.name }

// Alias returns the join alias, or the table name when no alias is set.
func (j *Join) Alias() string {
	if j.alias != "" {
		return j.alias
	}
	return j.name
}

// renderInto renders the join clause. prev is the resolved left-hand table
// for joins that did not set one explicitly; the join itself stays
// unmodified so re-rendering gives the same result.
func (j *Join) renderInto(r *renderer, prev string) (string, error) {
	var sb strings.Builder
	sb.WriteString(j.how)
	sb.WriteString(" JOIN ")
	sb.WriteString(quote(j.name))
	if j.alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(quote(j.alias))
	}
	if j.on != nil {
		parts := make([]string, 0, len(j.on))
		for _, p := range j.on {
			text, err := p.renderInto(r)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		sb.WriteString(" ON ")
		sb.WriteString(strings.Join(parts, " AND "))
		return sb.String(), nil
	}
	lhs := j.lhs
	if lhs == "" {
		lhs = prev
	}
	sb.WriteString(" ON ")
	sb.WriteString(quote(lhs))
	sb.WriteByte('.')
	sb.WriteString(quote(j.leftCol))
	sb.WriteByte(' ')
	sb.WriteString(j.op)
	sb.WriteByte(' ')
	sb.WriteString(quote(j.Alias()))
	sb.WriteByte('.')
	sb.WriteString(quote(j.rightCol))
	return sb.String(), nil
}

func (*Filter) stageNode() {}

// Group is a GROUP BY over one or more columns.
type Group struct {
	cols []Column
}

// NewGroup builds a validated grouping stage. Each col is a column name or
// a Column.
func NewGroup(cols ...any) (*Group, error) {
	out, err := toColumns(cols)
	if err != nil {
		return nil, err
	}
	return &Group{cols: out}, nil
}

func (*Group) stageNode() {}

func (g *Group) render() string {
	parts := make([]string, len(g.cols))
	for i, c := range g.cols {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Aggregate functions allowed in an aggregation stage. NUNIQUE is a
// pseudo-function rewritten to COUNT(DISTINCT col).
var aggFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "MIN": true,
	"MAX": true, "AVG": true, "NUNIQUE": true,
}

// Agg is one aggregate expression: Func over Col, optionally aliased. An
// empty or "*" Col aggregates over whole rows.
type Agg struct {
	Func  string
	Col   string
	Alias string
}

// Aggregation computes aggregate expressions, normally after a Group.
type Aggregation struct {
	aggs []Agg
}

// NewAggregation builds a validated aggregation stage.
func NewAggregation(aggs []Agg) (*Aggregation, error) {
	for _, a := range aggs {
		f := strings.ToUpper(a.Func)
		if !aggFuncs[f] {
			return nil, &InvalidAggregateFunctionError{Func: a.Func}
		}
		if a.Col != "" && a.Col != "*" {
			if err := validate.Path(a.Col); err != nil {
				return nil, err
			}
		}
		if a.Alias != "" {
			if err := validate.Path(a.Alias); err != nil {
				return nil, err
			}
		}
	}
	return &Aggregation{aggs: aggs}, nil
}

func (*Aggregation) stageNode() {}

// render produces the aggregate select-list entries, after any auto-added
// group columns.
func (a *Aggregation) render() string {
	exprs := make([]string, 0, len(a.aggs))
	for _, agg := range a.aggs {
		fn := strings.ToUpper(agg.Func)
		col := agg.Col
		if col == "" {
			col = "*"
		}
		var expr string
		switch {
		case fn == "NUNIQUE":
			expr = "COUNT(DISTINCT " + quote(col) + ")"
		case col == "*":
			expr = fn + "(*)"
		default:
			expr = fn + "(" + quote(col) + ")"
		}
		alias := agg.Alias
		if alias == "" {
			alias = strings.ToLower(fn)
		}
		exprs = append(exprs, expr+" AS "+quote(alias))
	}
	return strings.Join(exprs, ", ")
}

// Projection picks the result columns.
type Projection struct {
	cols []Selectable
}

// NewProjection builds a validated projection. Each col is a column name, a
// Column, or a CoalescedColumn.
func NewProjection(cols ...any) (*Projection, error) {
	out := make([]Selectable, 0, len(cols))
	for _, c := range cols {
		switch v := c.(type) {
		case string:
			col, err := NewColumn(v, "", "")
			if err != nil {
				return nil, err
			}
			out = append(out, col)
		case Column:
			if _, err := NewColumn(v.Name, v.Table, v.Alias); err != nil {
				return nil, err
			}
			out = append(out, v)
		case CoalescedColumn:
			out = append(out, v)
		default:
			return nil, fmt.Errorf("projection entry must be a column name, Column, or CoalescedColumn, got %T", c)
		}
	}
	return &Projection{cols: out}, nil
}

func (*Projection) stageNode() {}

// Columns returns the projected entries.
func (p *Projection) Columns() []Selectable { return p.cols }

func (p *Projection) render() string {
	parts := make([]string, len(p.cols))
	for i, c := range p.cols {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Sort directions for Order terms.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Col Column
	Dir string
}

// Order is an ORDER BY over one or more terms.
type Order struct {
	terms []OrderTerm
}

// NewOrder builds a validated ordering stage. Each term is a column name
// (ascending), a Column (ascending), or an OrderTerm.
func NewOrder(terms ...any) (*Order, error) {
	out := make([]OrderTerm, 0, len(terms))
	for _, t := range terms {
		switch v := t.(type) {
		case string:
			col, err := NewColumn(v, "", "")
			if err != nil {
				return nil, err
			}
			out = append(out, OrderTerm{Col: col, Dir: Asc})
		case Column:
			out = append(out, OrderTerm{Col: v, Dir: Asc})
		case OrderTerm:
			if v.Dir != Asc && v.Dir != Desc {
				return nil, &InvalidQueryError{Reason: fmt.Sprintf("unknown sort direction %q", v.Dir)}
			}
			out = append(out, v)
		default:
			return nil, fmt.Errorf("order term must be a column name, Column, or OrderTerm, got %T", t)
		}
	}
	return &Order{terms: out}, nil
}

func (*Order) stageNode() {}

func (o *Order) render() string {
	parts := make([]string, len(o.terms))
	for i, t := range o.terms {
		col := t.Col
		col.Alias = "" // aliases never appear in ORDER BY
		parts[i] = col.String() + " " + t.Dir
	}
	return strings.Join(parts, ", ")
}

// Limit caps the number of result rows.
type Limit int

func (Limit) stageNode() {}

// Offset skips leading result rows.
type Offset int

func (Offset) stageNode() {}

// Count reduces the result set to a row count.
type Count struct{}

func (Count) stageNode() {}

// Unique reduces the result set to distinct rows.
type Unique struct{}

func (Unique) stageNode() {}

// CountUnique counts distinct rows; with Cols, distinct tuples of those
// columns.
type CountUnique struct {
	Cols []string
}

func (CountUnique) stageNode() {}

// toColumns normalizes a mixed list of names and Columns.
func toColumns(cols []any) ([]Column, error) {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		switch v := c.(type) {
		case string:
			col, err := NewColumn(v, "", "")
			if err != nil {
				return nil, err
			}
			out = append(out, col)
		case Column:
			if _, err := NewColumn(v.Name, v.Table, v.Alias); err != nil {
				return nil, err
			}
			out = append(out, v)
		default:
			return nil, fmt.Errorf("expected a column name or Column, got %T", c)
		}
	}
	return out, nil
}
