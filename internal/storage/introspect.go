package storage

import (
	"database/sql"
	"strings"

	"github.com/scorchdb/scorch/internal/sco"
	"github.com/scorchdb/scorch/internal/validate"
)

// Tables returns all object tables, excluding metadata and SQLite
// internals.
func (s *Store) Tables() ([]string, error) {
	return s.masterNames("table", true)
}

// Views returns all registered view names.
func (s *Store) Views() ([]string, error) {
	return s.masterNames("view", false)
}

// Types returns the object types present in the store. Object tables are
// named after their type, so this is the table list.
func (s *Store) Types() ([]string, error) {
	return s.Tables()
}

func (s *Store) masterNames(kind string, skipInternal bool) ([]string, error) {
	rows, err := s.queryRows(`SELECT name FROM sqlite_master WHERE type = ? ORDER BY name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if skipInternal && (strings.HasPrefix(name, "__") || strings.HasPrefix(name, "sqlite")) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Columns returns the column names of a table or view.
func (s *Store) Columns(viewname string) ([]string, error) {
	defs, err := s.Schema(viewname)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(defs))
	for i, def := range defs {
		cols[i] = def.Name
	}
	return cols, nil
}

// Schema returns the column names and declared types of a table or view.
func (s *Store) Schema(viewname string) ([]sco.ColumnDef, error) {
	if err := validate.Name(viewname); err != nil {
		return nil, err
	}
	rows, err := s.queryRows(`SELECT name, type FROM pragma_table_info(?)`, viewname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []sco.ColumnDef
	for rows.Next() {
		var def sco.ColumnDef
		if err := rows.Scan(&def.Name, &def.Type); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if defs == nil {
		return nil, &UnknownViewError{Name: viewname}
	}
	return defs, nil
}

// TableType returns the object type registered for a table or view, or ""
// when the name has no registration.
func (s *Store) TableType(viewname string) (string, error) {
	if err := validate.Name(viewname); err != nil {
		return "", err
	}
	var t sql.NullString
	err := s.db.QueryRow(`SELECT type FROM "__symtable" WHERE name = ?`, viewname).Scan(&t)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t.String, nil
}

// SchemaContext snapshots the store's tables, views, columns, and type
// registrations for the resolver and planner packages.
func (s *Store) SchemaContext() (*sco.SchemaContext, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}
	views, err := s.Views()
	if err != nil {
		return nil, err
	}

	defs := make(map[string][]sco.ColumnDef, len(tables)+len(views))
	for _, name := range append(tables, views...) {
		cols, err := s.Schema(name)
		if err != nil {
			return nil, err
		}
		defs[name] = cols
	}

	types := make(map[string]string)
	rows, err := s.queryRows(`SELECT name, type FROM "__symtable"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var t sql.NullString
		if err := rows.Scan(&name, &t); err != nil {
			return nil, err
		}
		if t.Valid && t.String != "" {
			types[name] = t.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sco.NewSchemaContext(defs, types), nil
}

// viewDef returns the SELECT body a view was created from.
func (s *Store) viewDef(viewname string) (string, error) {
	var stmt string
	err := s.db.QueryRow(
		`SELECT sql FROM sqlite_master WHERE type = 'view' AND name = ?`, viewname,
	).Scan(&stmt)
	if err == sql.ErrNoRows {
		return "", &UnknownViewError{Name: viewname}
	}
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(stmt, `CREATE VIEW "`+viewname+`" AS `), nil
}

func (s *Store) tableExists(name string) (bool, error) {
	return s.masterHas("table", name)
}

func (s *Store) viewExists(name string) (bool, error) {
	return s.masterHas("view", name)
}

func (s *Store) masterHas(kind, name string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = ? AND name = ?`, kind, name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
