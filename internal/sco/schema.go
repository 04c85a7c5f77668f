package sco

import (
	"sort"
	"strings"
)

// ColumnDef is one column of a stored table: its name and SQL type.
type ColumnDef struct {
	Name string
	Type string
}

// SchemaContext is an immutable snapshot of the store's tables and views,
// built once per logical session and threaded through path resolution and
// join planning. Table order and per-table column order are deterministic,
// so everything planned against a snapshot renders the same way every time.
type SchemaContext struct {
	tables []string
	defs   map[string][]ColumnDef
	types  map[string]string
}

// NewSchemaContext builds a snapshot. defs maps each table or view to its
// ordered columns; types maps views to the object type they select from and
// may be nil. Table names are sorted.
func NewSchemaContext(defs map[string][]ColumnDef, types map[string]string) *SchemaContext {
	tables := make([]string, 0, len(defs))
	copied := make(map[string][]ColumnDef, len(defs))
	for name, cols := range defs {
		tables = append(tables, name)
		copied[name] = append([]ColumnDef(nil), cols...)
	}
	sort.Strings(tables)

	copiedTypes := make(map[string]string, len(types))
	for name, t := range types {
		copiedTypes[name] = t
	}
	return &SchemaContext{tables: tables, defs: copied, types: copiedTypes}
}

// Tables returns the table and view names in sorted order.
func (s *SchemaContext) Tables() []string {
	return append([]string(nil), s.tables...)
}

// HasTable reports whether the snapshot contains the table or view.
func (s *SchemaContext) HasTable(name string) bool {
	_, ok := s.defs[name]
	return ok
}

// ColumnDefs returns the ordered column definitions of a table, or nil when
// the table is unknown.
func (s *SchemaContext) ColumnDefs(table string) []ColumnDef {
	return append([]ColumnDef(nil), s.defs[table]...)
}

// Columns returns the ordered column names of a table.
func (s *SchemaContext) Columns(table string) []string {
	defs := s.defs[table]
	cols := make([]string, len(defs))
	for i, d := range defs {
		cols[i] = d.Name
	}
	return cols
}

// HasColumn reports whether the table has the named column.
func (s *SchemaContext) HasColumn(table, col string) bool {
	for _, d := range s.defs[table] {
		if d.Name == col {
			return true
		}
	}
	return false
}

// Types returns the object-type tables in sorted order: everything that is
// neither a view nor internal metadata.
func (s *SchemaContext) Types() []string {
	var types []string
	for _, name := range s.tables {
		if _, isView := s.types[name]; isView {
			continue
		}
		if strings.HasPrefix(name, "__") {
			continue
		}
		types = append(types, name)
	}
	return types
}

// TableType returns the object type a table or view holds. Base tables are
// named after their type; views carry an explicit mapping.
func (s *SchemaContext) TableType(name string) string {
	if t, ok := s.types[name]; ok {
		return t
	}
	return name
}
