// Package storage implements the SQLite-backed object store. Tables are
// named after object types, views are named result sets registered in the
// __symtable metadata table, and the query package renders everything that
// runs against the database.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/scorchdb/scorch/internal/audit"
	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/sco"
)

// Store is the SQLite store handle.
type Store struct {
	db   *sql.DB
	path string
	dict *sco.Dictionary
	log  *audit.Logger
}

const metaSchema = `
	CREATE TABLE IF NOT EXISTS "__symtable" (name TEXT, type TEXT, appdata TEXT);
	CREATE TABLE IF NOT EXISTS "__membership" (sco_id TEXT, var TEXT);
	CREATE TABLE IF NOT EXISTS "__queries" (sco_id TEXT, query_id TEXT);
	CREATE TABLE IF NOT EXISTS "__reflist" (ref_name TEXT, source_ref TEXT, target_ref TEXT);
	CREATE TABLE IF NOT EXISTS "__columns" (
		table_name TEXT,
		column_name TEXT,
		column_type TEXT,
		PRIMARY KEY (table_name, column_name)
	);
`

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path, dict: sco.NewDictionary(nil)}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory store (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pool connection would get its own empty database, so pin the
	// pool to one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: "", dict: sco.NewDictionary(nil)}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec(metaSchema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Delete closes the store and removes the database file.
func (s *Store) Delete() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DB returns the underlying sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetDictionary replaces the reference mappings used for pattern
// compilation and dereferencing.
func (s *Store) SetDictionary(dict *sco.Dictionary) {
	if dict == nil {
		dict = sco.NewDictionary(nil)
	}
	s.dict = dict
}

// SetAuditLogger attaches a statement audit log. Pass nil to disable.
func (s *Store) SetAuditLogger(log *audit.Logger) {
	s.log = log
}

func (s *Store) exec(stmt string, args ...any) error {
	_, err := s.db.Exec(stmt, args...)
	s.log.LogStatement("exec", stmt, len(args), err)
	if err != nil {
		return mapSQLError(err)
	}
	return nil
}

func (s *Store) queryRows(stmt string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.Query(stmt, args...)
	s.log.LogStatement("query", stmt, len(args), err)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return rows, nil
}

// mapSQLError translates the driver's schema errors into the store's
// taxonomy so callers can react without string matching.
func mapSQLError(err error) error {
	msg := err.Error()
	if name, ok := cutAfter(msg, "no such column: "); ok {
		return &InvalidAttrError{Name: name}
	}
	if name, ok := cutAfter(msg, "no such table: "); ok {
		return &UnknownViewError{Name: strings.TrimPrefix(name, "main.")}
	}
	return err
}

func cutAfter(msg, marker string) (string, bool) {
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	rest := msg[idx+len(marker):]
	if end := strings.IndexAny(rest, " ("); end >= 0 {
		rest = rest[:end]
	}
	return rest, rest != ""
}

// Result is an executed query's rows with their column order preserved.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// RunQuery renders q with positional placeholders and executes it.
func (s *Store) RunQuery(q *query.Query) (*Result, error) {
	text, values, err := q.Render(query.Question)
	if err != nil {
		return nil, err
	}
	return s.runSelect(text, values...)
}

func (s *Store) runSelect(stmt string, args ...any) (*Result, error) {
	rows, err := s.queryRows(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = string(b)
			}
			row[col] = vals[i]
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}
