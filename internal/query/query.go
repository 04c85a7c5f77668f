// Package query is a composable, injection-safe intermediate representation
// for SELECT statements. Stages are appended in any order the caller likes
// and rendered in fixed SQL clause order; every identifier is validated
// before it becomes text and every value is bound as a parameter.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is a mutable builder for one SELECT statement. A Query is not safe
// for concurrent mutation, but distinct instances are fully independent and
// rendering is read-only.
type Query struct {
	table    Stage // Table or *Query; nil until a base is set
	joins    []*Join
	where    []*Filter
	having   []*Filter
	groupby  *Group
	aggs     *Aggregation
	proj     *Projection
	order    *Order
	limit    *int
	offset   *int
	distinct bool
	count    bool
}

// A Query can serve as another query's base table.
func (*Query) stageNode() {}

// New builds a query from stages, applying them in order.
func New(stages ...Stage) (*Query, error) {
	q := &Query{}
	if err := q.Extend(stages); err != nil {
		return nil, err
	}
	return q, nil
}

// From builds a query over a single base table.
func From(table string, stages ...Stage) (*Query, error) {
	t, err := NewTable(table)
	if err != nil {
		return nil, err
	}
	q := &Query{table: t}
	if err := q.Extend(stages); err != nil {
		return nil, err
	}
	return q, nil
}

// Extend appends stages in order.
func (q *Query) Extend(stages []Stage) error {
	for _, s := range stages {
		if err := q.Append(s); err != nil {
			return err
		}
	}
	return nil
}

// Append adds one stage, dispatching on its variant. The first base table
// wins; a Join requires a base; a Filter routes to HAVING once grouping is
// set; an Aggregation after a Projection is rejected.
func (q *Query) Append(stage Stage) error {
	switch s := stage.(type) {
	case Table:
		if q.table == nil {
			q.table = s
		}
	case *Query:
		if q.table == nil {
			q.table = s
		}
	case *Join:
		if q.table == nil {
			return &InvalidQueryError{Reason: "Join must follow a Table or Query"}
		}
		q.joins = append(q.joins, s)
	case *Filter:
		if q.groupby != nil {
			q.having = append(q.having, s)
		} else {
			q.where = append(q.where, s)
		}
	case *Group:
		if q.groupby != nil {
			return &InvalidQueryError{Reason: "query already has a grouping"}
		}
		q.groupby = s
	case *Aggregation:
		if q.proj != nil {
			return &InvalidQueryError{Reason: "cannot have Aggregation after Projection"}
		}
		q.aggs = s
	case *Projection:
		q.proj = s
	case *Order:
		q.order = s
	case Limit:
		n := int(s)
		q.limit = &n
	case Offset:
		n := int(s)
		q.offset = &n
	case Count:
		q.count = true
	case Unique:
		q.distinct = true
	case CountUnique:
		q.distinct = true
		q.count = true
		if len(s.Cols) > 0 && q.proj == nil {
			cols := make([]any, len(s.Cols))
			for i, c := range s.Cols {
				cols[i] = c
			}
			proj, err := NewProjection(cols...)
			if err != nil {
				return err
			}
			q.proj = proj
		}
	default:
		return fmt.Errorf("unknown query stage %T", stage)
	}
	return nil
}

// BaseTable returns the base table name, or "" when the base is a subquery
// or unset.
func (q *Query) BaseTable() string {
	if t, ok := q.table.(Table); ok {
		return t.Name
	}
	return ""
}

// lastTable returns the table results are keyed by after joins: the last
// join's alias, or the base table.
func (q *Query) lastTable() string {
	if len(q.joins) > 0 {
		return q.joins[len(q.joins)-1].Alias()
	}
	return q.BaseTable()
}

// Render produces the SQL text and the ordered parameter list. Rendering is
// a pure function of the query's state: rendering twice gives identical
// output.
func (q *Query) Render(ph Placeholder) (string, []any, error) {
	r := &renderer{ph: ph}
	text, err := q.renderInto(r)
	if err != nil {
		return "", nil, err
	}
	return text, r.values, nil
}

func (q *Query) renderInto(r *renderer) (string, error) {
	var from string
	var prev string
	switch t := q.table.(type) {
	case Table:
		from = "FROM " + quote(t.Name)
		prev = t.Name
	case *Query:
		sub, err := t.renderInto(r)
		if err != nil {
			return "", err
		}
		from = "FROM (" + sub + ") AS s1"
		prev = "s1"
	default:
		return "", &InvalidQueryError{Reason: "query has no base table"}
	}

	rest := from
	for _, j := range q.joins {
		text, err := j.renderInto(r, prev)
		if err != nil {
			return "", err
		}
		rest += " " + text
		prev = j.Alias()
	}

	if len(q.where) > 0 {
		parts := make([]string, 0, len(q.where))
		for _, f := range q.where {
			text, err := f.renderInto(r)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		rest += " WHERE " + strings.Join(parts, " AND ")
	}

	if q.groupby != nil {
		rest += " GROUP BY " + q.groupby.render()
	}

	if len(q.having) > 0 {
		parts := make([]string, 0, len(q.having))
		for _, f := range q.having {
			text, err := f.renderInto(r)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		rest += " HAVING " + strings.Join(parts, " AND ")
	}

	// Result columns. A projection replaces any auto-added group columns;
	// without one, grouping prepends its columns to the aggregate list.
	var cols string
	switch {
	case q.proj != nil:
		cols = q.proj.render()
	case q.aggs != nil:
		var exprs []string
		if q.groupby != nil {
			exprs = append(exprs, q.groupby.render())
		}
		exprs = append(exprs, q.aggs.render())
		cols = strings.Join(exprs, ", ")
	default:
		cols = "*"
	}

	var text string
	switch {
	case q.distinct && q.count:
		if q.proj == nil {
			text = `SELECT COUNT(*) AS "count" FROM (SELECT DISTINCT ` + cols + " " + rest + ") AS tmp"
		} else {
			text = "SELECT COUNT(DISTINCT " + cols + `) AS "count" ` + rest
		}
	case q.distinct:
		text = "SELECT DISTINCT " + cols + " " + rest
	case q.count:
		if q.proj == nil {
			text = `SELECT COUNT(*) AS "count" ` + rest
		} else {
			text = "SELECT COUNT(" + cols + `) AS "count" ` + rest
		}
	default:
		text = "SELECT " + cols + " " + rest
	}

	if q.order != nil {
		text += " ORDER BY " + q.order.render()
	}
	if q.limit != nil {
		text += " LIMIT " + strconv.Itoa(*q.limit)
	}
	if q.offset != nil {
		text += " OFFSET " + strconv.Itoa(*q.offset)
	}
	return text, nil
}
