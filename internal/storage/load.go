package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/scorchdb/scorch/internal/validate"
)

// Load imports flattened objects into their per-type tables and registers
// viewname over the resulting scoType rows. Objects without an id get a
// generated one; list-valued reference properties land in __reflist rather
// than a column. Returns the resolved object type.
func (s *Store) Load(viewname string, objects []map[string]any, scoType, queryID string) (string, error) {
	if err := validate.Name(viewname); err != nil {
		return "", err
	}
	if err := validate.Name(queryID); err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", &InvalidObjectError{Reason: "no objects"}
	}

	if queryID == "" {
		if qid, ok := objects[0]["query_id"].(string); ok && qid != "" {
			queryID = qid
		} else {
			queryID = uuid.NewString()
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, src := range objects {
		obj := make(map[string]any, len(src))
		for k, v := range src {
			if k == "query_id" {
				continue
			}
			obj[k] = v
		}

		typ, _ := obj["type"].(string)
		if typ == "" {
			typ = scoType
		}
		if typ == "" {
			return "", &InvalidObjectError{Reason: "missing `type`"}
		}
		if err := validate.Name(typ); err != nil {
			return "", err
		}
		if scoType == "" {
			scoType = typ
		}
		obj["type"] = typ

		id, _ := obj["id"].(string)
		if id == "" {
			id = typ + "--" + uuid.NewString()
			obj["id"] = id
		}

		refLists := popRefLists(obj)

		if err := s.ensureTable(tx, typ, obj); err != nil {
			return "", err
		}
		if err := s.upsert(tx, typ, obj, queryID); err != nil {
			return "", err
		}
		for name, targets := range refLists {
			for _, target := range targets {
				_, err := tx.Exec(
					`INSERT INTO "__reflist" (ref_name, source_ref, target_ref) VALUES (?, ?, ?)`,
					name, id, target,
				)
				if err != nil {
					return "", err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	if err := s.Extract(viewname, scoType, queryID, ""); err != nil {
		return "", err
	}
	return scoType, nil
}

// popRefLists removes list-valued reference properties from obj and
// returns their targets keyed by property name.
func popRefLists(obj map[string]any) map[string][]string {
	var lists map[string][]string
	for key, value := range obj {
		if !strings.HasSuffix(key, "_refs") {
			continue
		}
		items, ok := value.([]any)
		if !ok {
			continue
		}
		var targets []string
		for _, item := range items {
			if target, ok := item.(string); ok {
				targets = append(targets, target)
			}
		}
		if lists == nil {
			lists = make(map[string][]string)
		}
		lists[key] = targets
		delete(obj, key)
	}
	return lists
}

// inferType maps a property value to a column type.
func inferType(key string, value any) string {
	switch key {
	case "id":
		return "TEXT UNIQUE"
	case "number_observed":
		return "NUMERIC"
	}
	switch v := value.(type) {
	case int, int64, bool:
		return "NUMERIC"
	case float64:
		// JSON decoding hands every number over as float64.
		if v == math.Trunc(v) {
			return "NUMERIC"
		}
		return "REAL"
	default:
		return "TEXT"
	}
}

// columnOrder returns obj's keys with id and type first, the rest sorted.
func columnOrder(obj map[string]any) []string {
	rest := make([]string, 0, len(obj))
	for k := range obj {
		if k != "id" && k != "type" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append([]string{"id", "type"}, rest...)
}

// ensureTable creates the per-type table on first sight of a type and adds
// columns for properties the table has not seen before.
func (s *Store) ensureTable(tx *sql.Tx, tablename string, obj map[string]any) error {
	// Property keys become DDL text, so each one passes the path gate
	// before any statement is built.
	for key := range obj {
		if err := validate.Path(key); err != nil {
			return err
		}
	}

	existing, err := tableColumns(tx, tablename)
	if err != nil {
		return err
	}

	if existing == nil {
		cols := columnOrder(obj)
		defs := make([]string, len(cols))
		for i, col := range cols {
			defs[i] = fmt.Sprintf(`"%s" %s`, col, inferType(col, obj[col]))
		}
		stmt := fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tablename, strings.Join(defs, ", "))
		if _, err := tx.Exec(stmt); err != nil {
			s.log.LogStatement("ddl", stmt, 0, err)
			return err
		}
		s.log.LogStatement("ddl", stmt, 0, nil)
		for i, col := range cols {
			if err := recordColumn(tx, tablename, col, defs[i]); err != nil {
				return err
			}
		}
		if _, ok := obj["x_contained_by_ref"]; ok {
			idx := fmt.Sprintf(`CREATE INDEX "%s_obs" ON "%s" ("x_contained_by_ref")`, tablename, tablename)
			if _, err := tx.Exec(idx); err != nil {
				return err
			}
		}
		return nil
	}

	have := make(map[string]bool, len(existing))
	for _, col := range existing {
		have[col] = true
	}
	for _, col := range columnOrder(obj) {
		if have[col] {
			continue
		}
		colType := inferType(col, obj[col])
		stmt := fmt.Sprintf(`ALTER TABLE "%s" ADD COLUMN "%s" %s`, tablename, col, colType)
		if _, err := tx.Exec(stmt); err != nil {
			s.log.LogStatement("ddl", stmt, 0, err)
			return err
		}
		s.log.LogStatement("ddl", stmt, 0, nil)
		if err := recordColumn(tx, tablename, col, colType); err != nil {
			return err
		}
	}
	return nil
}

func recordColumn(tx *sql.Tx, tablename, col, colType string) error {
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO "__columns" (table_name, column_name, column_type) VALUES (?, ?, ?)`,
		tablename, col, colType,
	)
	return err
}

// tableColumns returns the table's columns, or nil when it does not exist.
func tableColumns(tx *sql.Tx, tablename string) ([]string, error) {
	rows, err := tx.Query(`SELECT name FROM pragma_table_info(?)`, tablename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// upsert inserts one object, merging observation counters on id conflict:
// first_observed keeps the minimum, last_observed the maximum, and
// number_observed accumulates.
func (s *Store) upsert(tx *sql.Tx, tablename string, obj map[string]any, queryID string) error {
	cols := columnOrder(obj)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = `"` + col + `"`
		marks[i] = "?"
		values[i] = sqlValue(obj[col])
	}

	stmt := fmt.Sprintf(
		`INSERT INTO "%s" (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		tablename, strings.Join(quoted, ", "), strings.Join(marks, ", "),
		excludedClauses(cols, tablename),
	)
	_, err := tx.Exec(stmt, values...)
	s.log.LogStatement("exec", stmt, len(values), err)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO "__queries" (sco_id, query_id) VALUES (?, ?)`,
		obj["id"], queryID,
	)
	return err
}

func excludedClauses(cols []string, tablename string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		switch col {
		case "id":
		case "first_observed":
			parts = append(parts,
				fmt.Sprintf(`first_observed = MIN("%s".first_observed, EXCLUDED.first_observed)`, tablename))
		case "last_observed":
			parts = append(parts,
				fmt.Sprintf(`last_observed = MAX("%s".last_observed, EXCLUDED.last_observed)`, tablename))
		case "number_observed":
			parts = append(parts,
				fmt.Sprintf(`number_observed = "%s".number_observed + EXCLUDED.number_observed`, tablename))
		default:
			parts = append(parts, fmt.Sprintf(`"%s" = EXCLUDED."%s"`, col, col))
		}
	}
	return strings.Join(parts, ", ")
}

// sqlValue serializes compound values as JSON text for storage.
func sqlValue(v any) any {
	switch v.(type) {
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
	return v
}
