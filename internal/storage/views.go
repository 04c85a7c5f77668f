package storage

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/scorchdb/scorch/internal/deref"
	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/sco"
	"github.com/scorchdb/scorch/internal/stixpat"
	"github.com/scorchdb/scorch/internal/validate"
)

// Extract compiles pattern against scoType and registers viewname over the
// matching rows. An empty pattern selects everything; a non-empty queryID
// restricts matching to that load's objects.
func (s *Store) Extract(viewname, scoType, queryID, pattern string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}
	if err := validate.Name(scoType); err != nil {
		return err
	}
	// The query id becomes SQL text below, so it passes the same gate as
	// every other identifier.
	if err := validate.Name(queryID); err != nil {
		return err
	}

	where := ""
	if pattern != "" {
		compiled, err := stixpat.NewCompiler(s.dict).Compile(pattern, scoType)
		if err != nil {
			return err
		}
		where = compiled
	}
	if queryID != "" {
		clause := fmt.Sprintf("query_id = '%s'", queryID)
		if where != "" {
			where = clause + " AND (" + where + ")"
		} else {
			where = clause
		}
	}

	// Reassigning an existing view drops its old membership first.
	exists, err := s.viewExists(viewname)
	if err != nil {
		return err
	}
	if exists {
		if err := s.exec(`DELETE FROM "__membership" WHERE var = ?`, viewname); err != nil {
			return err
		}
	}

	hasTable, err := s.tableExists(scoType)
	if err != nil {
		return err
	}
	if hasTable {
		sel := fmt.Sprintf(
			`SELECT "id", '%s' FROM (SELECT s.id, q.query_id FROM "%s" AS s`+
				` INNER JOIN __queries AS q ON s.id = q.sco_id`,
			viewname, scoType)
		if where != "" {
			sel += " WHERE " + where
		}
		sel += ") AS foo"
		if err := s.exec(`INSERT INTO "__membership" ("sco_id", "var") ` + sel); err != nil {
			return err
		}
	}

	sel := fmt.Sprintf(
		`SELECT * FROM "%s" WHERE "id" IN (SELECT "sco_id" FROM __membership WHERE var = '%s')`,
		scoType, viewname)
	return s.createView(viewname, sel, scoType, []string{scoType})
}

// Filter compiles pattern against scoType and registers viewname over the
// rows of inputView that match.
func (s *Store) Filter(viewname, scoType, inputView, pattern string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}
	if err := validate.Name(inputView); err != nil {
		return err
	}

	def, err := s.viewDef(inputView)
	if err != nil {
		return err
	}
	sel := "SELECT * FROM (" + def + ") AS tmp"
	if pattern != "" {
		where, err := stixpat.NewCompiler(s.dict).Compile(pattern, scoType)
		if err != nil {
			return err
		}
		if where != "" {
			sel += " WHERE " + where
		}
	}
	return s.createView(viewname, sel, scoType, nil)
}

// Assign registers viewname as a sorted or grouped rendition of an
// existing table or view. op is "sort" or "group"; by is an object path
// whose terminal property names the column.
func (s *Store) Assign(viewname, on, op, by string, ascending bool, limit int) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}
	if err := validate.Path(by); err != nil {
		return err
	}
	column := by
	if idx := strings.LastIndex(by, ":"); idx >= 0 {
		column = by[idx+1:]
	}

	scoType, err := s.TableType(on)
	if err != nil {
		return err
	}

	q, err := query.From(on)
	if err != nil {
		return err
	}

	switch op {
	case "sort":
		dir := query.Asc
		if !ascending {
			dir = query.Desc
		}
		col, err := query.NewColumn(column, "", "")
		if err != nil {
			return err
		}
		order, err := query.NewOrder(query.OrderTerm{Col: col, Dir: dir})
		if err != nil {
			return err
		}
		if err := q.Append(order); err != nil {
			return err
		}
		if limit > 0 {
			if err := q.Append(query.Limit(limit)); err != nil {
				return err
			}
		}
	case "group":
		group, err := query.NewGroup(column)
		if err != nil {
			return err
		}
		if err := q.Append(group); err != nil {
			return err
		}
		aggs, err := s.groupAggs(on, scoType, column)
		if err != nil {
			return err
		}
		agg, err := query.NewAggregation(aggs)
		if err != nil {
			return err
		}
		if err := q.Append(agg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown assign operation %q", op)
	}

	return s.AssignQuery(viewname, q, scoType)
}

// groupAggs builds the aggregate list for a grouped view: the type column
// collapses with MIN, every other column gets its type-appropriate
// aggregate.
func (s *Store) groupAggs(on, scoType, groupCol string) ([]query.Agg, error) {
	defs, err := s.Schema(on)
	if err != nil {
		return nil, err
	}
	aggs := []query.Agg{{Func: "MIN", Col: "type", Alias: "type"}}
	for _, def := range defs {
		if def.Name == groupCol || def.Name == "type" {
			continue
		}
		if agg, ok := sco.AutoAgg(scoType, def.Name, def.Type); ok {
			aggs = append(aggs, agg)
		}
	}
	return aggs, nil
}

// AssignQuery renders q with its values inlined and registers viewname
// over the result. scoType defaults to the registered type of the query's
// base table.
func (s *Store) AssignQuery(viewname string, q *query.Query, scoType string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}

	text, values, err := q.Render(query.Format)
	if err != nil {
		return err
	}
	// Views cannot carry bound parameters, so values become SQL literals.
	lits := make([]any, len(values))
	for i, v := range values {
		lits[i] = sqlLiteral(v)
	}
	sel := fmt.Sprintf(text, lits...)

	base := q.BaseTable()
	if scoType == "" {
		scoType, err = s.TableType(base)
		if err != nil {
			return err
		}
		if scoType == "" {
			scoType = base
		}
	}
	return s.createView(viewname, sel, scoType, []string{base})
}

func sqlLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Lookup returns viewname's rows with reference columns automatically
// dereferenced. paths restricts the output; nil means every column.
func (s *Store) Lookup(viewname string, paths []string, limit, offset int) (*Result, error) {
	if err := validate.Name(viewname); err != nil {
		return nil, err
	}

	schema, err := s.SchemaContext()
	if err != nil {
		return nil, err
	}
	if !schema.HasTable(viewname) {
		return nil, &UnknownViewError{Name: viewname}
	}

	planner := deref.NewPlanner(schema, s.dict)
	joins, proj, err := planner.AutoDeref(viewname, paths)
	if err != nil {
		return nil, err
	}

	q, err := query.From(viewname)
	if err != nil {
		return nil, err
	}
	for _, join := range joins {
		if err := q.Append(join); err != nil {
			return nil, err
		}
	}
	if proj == nil && len(paths) > 0 {
		// Aggregate views have no id column to dereference through, so
		// requested paths must be plain columns.
		cols := make([]any, len(paths))
		for i, p := range paths {
			if !schema.HasColumn(viewname, p) {
				return nil, &InvalidAttrError{Name: p}
			}
			cols[i] = p
		}
		proj, err = query.NewProjection(cols...)
		if err != nil {
			return nil, err
		}
	}
	if proj != nil {
		if err := q.Append(proj); err != nil {
			return nil, err
		}
	}
	if limit > 0 {
		if err := q.Append(query.Limit(limit)); err != nil {
			return nil, err
		}
	}
	if offset > 0 {
		if err := q.Append(query.Offset(offset)); err != nil {
			return nil, err
		}
	}

	return s.RunQuery(q)
}

// Values returns the values of one object path's column from viewname.
func (s *Store) Values(path, viewname string) ([]any, error) {
	if err := validate.Path(path); err != nil {
		return nil, err
	}
	if err := validate.Name(viewname); err != nil {
		return nil, err
	}

	column := path
	if idx := strings.LastIndex(path, ":"); idx >= 0 {
		column = path[idx+1:]
	}
	cols, err := s.Columns(viewname)
	if err != nil {
		return nil, err
	}
	found := false
	for _, col := range cols {
		if col == column {
			found = true
			break
		}
	}
	if !found {
		return nil, &InvalidAttrError{Name: path}
	}

	result, err := s.runSelect(fmt.Sprintf(`SELECT "%s" FROM "%s"`, column, viewname))
	if err != nil {
		return nil, err
	}
	values := make([]any, len(result.Rows))
	for i, row := range result.Rows {
		values[i] = row[column]
	}
	return values, nil
}

// Count returns the number of rows in viewname.
func (s *Store) Count(viewname string) (int, error) {
	if err := validate.Name(viewname); err != nil {
		return 0, err
	}
	result, err := s.runSelect(fmt.Sprintf(`SELECT COUNT(*) AS "count" FROM "%s"`, viewname))
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 {
		return 0, nil
	}
	if n, ok := result.Rows[0]["count"].(int64); ok {
		return int(n), nil
	}
	return 0, nil
}

// RemoveView drops viewname and its registration.
func (s *Store) RemoveView(viewname string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}
	if err := s.exec(fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, viewname)); err != nil {
		return err
	}
	return s.exec(`DELETE FROM "__symtable" WHERE name = ?`, viewname)
}

// RenameView renames a registered view, rewriting its membership filter.
func (s *Store) RenameView(oldname, newname string) error {
	if err := validate.Name(oldname); err != nil {
		return err
	}
	if err := validate.Name(newname); err != nil {
		return err
	}

	viewType, err := s.TableType(oldname)
	if err != nil {
		return err
	}
	def, err := s.viewDef(oldname)
	if err != nil {
		return err
	}

	if err := s.exec(fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, newname)); err != nil {
		return err
	}
	if err := s.exec(`DELETE FROM "__symtable" WHERE name = ?`, newname); err != nil {
		return err
	}
	if err := s.exec(`UPDATE "__membership" SET var = ? WHERE var = ?`, newname, oldname); err != nil {
		return err
	}

	def = strings.ReplaceAll(def, "var = '"+oldname+"'", "var = '"+newname+"'")
	if err := s.createView(newname, def, viewType, nil); err != nil {
		return err
	}
	if err := s.exec(fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, oldname)); err != nil {
		return err
	}
	return s.exec(`DELETE FROM "__symtable" WHERE name = ?`, oldname)
}

// SetAppdata attaches application data to a registered view.
func (s *Store) SetAppdata(viewname, data string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}
	return s.exec(`UPDATE "__symtable" SET appdata = ? WHERE name = ?`, data, viewname)
}

// GetAppdata retrieves application data for a registered view.
func (s *Store) GetAppdata(viewname string) (string, error) {
	if err := validate.Name(viewname); err != nil {
		return "", err
	}
	result, err := s.runSelect(`SELECT appdata FROM "__symtable" WHERE name = ?`, viewname)
	if err != nil {
		return "", err
	}
	if len(result.Rows) == 0 {
		return "", nil
	}
	if data, ok := result.Rows[0]["appdata"].(string); ok {
		return data, nil
	}
	return "", nil
}

// createView replaces viewname with selectStmt and registers its type.
// When the new definition depends on the view itself, the old definition
// is preserved under a temporary name first.
func (s *Store) createView(viewname, selectStmt, scoType string, deps []string) error {
	if err := validate.Name(viewname); err != nil {
		return err
	}

	selfDep := false
	for _, dep := range deps {
		if dep == viewname {
			selfDep = true
			break
		}
	}
	if selfDep {
		if exists, err := s.viewExists(viewname); err != nil {
			return err
		} else if exists {
			tmp := tmpViewName()
			old, err := s.viewDef(viewname)
			if err != nil {
				return err
			}
			if err := s.createView(tmp, old, scoType, nil); err != nil {
				return err
			}
			selectStmt = strings.ReplaceAll(selectStmt, `"`+viewname+`"`, `"`+tmp+`"`)
		}
	}

	if err := s.exec(fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, viewname)); err != nil {
		return err
	}
	if err := s.exec(fmt.Sprintf(`CREATE VIEW "%s" AS %s`, viewname, selectStmt)); err != nil {
		return err
	}
	if err := s.exec(`DELETE FROM "__symtable" WHERE name = ?`, viewname); err != nil {
		return err
	}
	return s.exec(`INSERT INTO "__symtable" (name, type) VALUES (?, ?)`, viewname, scoType)
}

const tmpNameLetters = "abcdefghijklmnopqrstuvwxyz"

func tmpViewName() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = tmpNameLetters[rand.Intn(len(tmpNameLetters))]
	}
	return string(b)
}
