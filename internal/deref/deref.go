// Package deref turns reference properties into join chains. ResolvePath
// follows one explicit object path to its terminal column; AutoDeref walks
// every reference column of a table to flatten an object and everything it
// points at into a single row.
package deref

import (
	"strings"

	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/sco"
	"github.com/scorchdb/scorch/internal/validate"
)

// reflistTable holds list-valued references as
// (ref_name, source_ref, target_ref) rows.
const reflistTable = "__reflist"

// Planner plans joins against one schema snapshot. The zero ignore map
// skips x-oca-asset's parent_process_ref, which would otherwise duplicate
// the process_ref subtree.
type Planner struct {
	schema *sco.SchemaContext
	dict   *sco.Dictionary
	ignore map[string][]string
}

// NewPlanner builds a planner over a schema snapshot. dict may be nil for
// the built-in reference mappings.
func NewPlanner(schema *sco.SchemaContext, dict *sco.Dictionary) *Planner {
	if dict == nil {
		dict = sco.NewDictionary(nil)
	}
	return &Planner{
		schema: schema,
		dict:   dict,
		ignore: map[string][]string{"x-oca-asset": {"parent_process_ref"}},
	}
}

// SetIgnore replaces the reference properties skipped during AutoDeref,
// keyed by object type.
func (p *Planner) SetIgnore(ignore map[string][]string) {
	p.ignore = ignore
}

// ResolvePath follows an object path from baseTable to its terminal column.
// Each reference hop becomes a LEFT OUTER join aliased by the accumulated
// reference path; leaf segments concatenate into the dotted target column.
// It returns the joins, the table (or alias) holding the terminal column,
// and the column name.
func (p *Planner) ResolvePath(baseTable, scoType, path string) ([]*query.Join, string, string, error) {
	if err := validate.Path(path); err != nil {
		return nil, "", "", err
	}

	var joins []*query.Join
	var refPath, leaf []string
	curTable := baseTable
	curType := scoType
	for _, seg := range strings.Split(path, ".") {
		if !sco.IsRef(strings.TrimSuffix(seg, "[*]")) {
			leaf = append(leaf, seg)
			continue
		}
		if len(leaf) > 0 {
			// a ref after a plain segment means the path dips into a
			// sub-object we cannot join through
			return nil, "", "", &validate.InvalidPathError{Path: path}
		}
		seg = strings.TrimSuffix(seg, "[*]")
		targets := p.dict.RefType(curType, seg)
		if len(targets) == 0 {
			return nil, "", "", &validate.InvalidPathError{Path: path}
		}
		target := targets[0]
		refPath = append(refPath, seg)
		alias := strings.Join(refPath, "__")

		if strings.HasSuffix(seg, "_refs") {
			listJoins, err := p.reflistJoins(curTable, seg, target, alias)
			if err != nil {
				return nil, "", "", err
			}
			joins = append(joins, listJoins...)
		} else {
			j, err := query.NewJoin(query.JoinSpec{
				Table:    target,
				LeftCol:  seg,
				Op:       "=",
				RightCol: "id",
				How:      "LEFT OUTER",
				Alias:    alias,
				LHS:      curTable,
			})
			if err != nil {
				return nil, "", "", err
			}
			joins = append(joins, j)
		}
		curTable = alias
		curType = target
	}

	col := strings.Join(leaf, ".")
	if col == "" {
		col = "id"
	}
	return joins, curTable, col, nil
}

// reflistJoins joins through the reference-list table: source object id to
// source_ref with a ref_name match, then target_ref to the target table.
func (p *Planner) reflistJoins(curTable, refName, target, alias string) ([]*query.Join, error) {
	listAlias := alias + "__reflist"
	srcID, err := query.NewColumn("id", curTable, "")
	if err != nil {
		return nil, err
	}
	onSource, err := query.NewPredicate(query.Column{Name: "source_ref", Table: listAlias}, "=", srcID)
	if err != nil {
		return nil, err
	}
	onName, err := query.NewPredicate(query.Column{Name: "ref_name", Table: listAlias}, "=", refName)
	if err != nil {
		return nil, err
	}
	listJoin, err := query.NewJoin(query.JoinSpec{
		Table: reflistTable,
		How:   "LEFT OUTER",
		Alias: listAlias,
		On:    []*query.Predicate{onSource, onName},
	})
	if err != nil {
		return nil, err
	}
	targetJoin, err := query.NewJoin(query.JoinSpec{
		Table:    target,
		LeftCol:  "target_ref",
		Op:       "=",
		RightCol: "id",
		How:      "LEFT OUTER",
		Alias:    alias,
		LHS:      listAlias,
	})
	if err != nil {
		return nil, err
	}
	return []*query.Join{listJoin, targetJoin}, nil
}
