package query

import (
	"strings"

	"github.com/scorchdb/scorch/internal/validate"
)

// Selectable is anything that can appear in a SELECT list: a plain or
// table-qualified column, or a COALESCE over equivalent columns.
type Selectable interface {
	selectable()
	String() string
}

// Column is a column reference with an optional table (or alias) qualifier
// and an optional output alias.
type Column struct {
	Name  string
	Table string
	Alias string
}

// NewColumn builds a validated column reference. table and alias may be
// empty.
func NewColumn(name, table, alias string) (Column, error) {
	if err := validate.Path(name); err != nil {
		return Column{}, err
	}
	if err := validate.Name(table); err != nil {
		return Column{}, err
	}
	if alias != "" {
		if err := validate.Path(alias); err != nil {
			return Column{}, err
		}
	}
	return Column{Name: name, Table: table, Alias: alias}, nil
}

func (Column) selectable() {}

// String renders the column as quoted SQL text.
func (c Column) String() string {
	var sb strings.Builder
	if c.Table != "" {
		sb.WriteString(quote(c.Table))
		sb.WriteByte('.')
	}
	sb.WriteString(quote(c.Name))
	if c.Alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(quote(c.Alias))
	}
	return sb.String()
}

// endName returns the name results are keyed by: the alias when set.
func (c Column) endName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// CoalescedColumn models COALESCE(a, b, ...) over equivalent columns from
// mutually exclusive joined tables, e.g. the shared columns of ipv4-addr
// and ipv6-addr after a dual-stack dereference.
type CoalescedColumn struct {
	Columns []Column
	Alias   string
}

// NewCoalescedColumn builds a validated coalesce projection. Each entry
// must be table-qualified so the candidates stay distinguishable.
func NewCoalescedColumn(cols []Column, alias string) (CoalescedColumn, error) {
	if err := validate.Path(alias); err != nil {
		return CoalescedColumn{}, err
	}
	for _, c := range cols {
		if _, err := NewColumn(c.Name, c.Table, c.Alias); err != nil {
			return CoalescedColumn{}, err
		}
	}
	return CoalescedColumn{Columns: cols, Alias: alias}, nil
}

func (CoalescedColumn) selectable() {}

func (c CoalescedColumn) String() string {
	parts := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		parts[i] = col.String()
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ") AS " + quote(c.Alias)
}

func (c CoalescedColumn) endName() string { return c.Alias }

// quote wraps an identifier in double quotes. Identifiers are validated
// before they get here, so no quote characters can appear inside.
func quote(s string) string {
	return `"` + s + `"`
}
