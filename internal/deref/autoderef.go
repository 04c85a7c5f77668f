package deref

import (
	"strings"

	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/sco"
)

// refNode is one node of the reference-dependency tree: the table joined in
// and the reference property that led to it.
type refNode struct {
	table    string
	edge     string
	parent   *refNode
	children []*refNode
}

// path returns the edge labels from the root to this node.
func (n *refNode) path() []string {
	if n.parent == nil {
		return nil
	}
	return append(n.parent.path(), n.edge)
}

// AutoDeref plans the joins and projection that flatten view and every
// object it references into one row. When paths is non-empty, only those
// columns or dotted reference paths are projected, in the given order; a
// single "*" keeps everything. Views without an id column (aggregates)
// yield no joins and a nil projection.
func (p *Planner) AutoDeref(view string, paths []string) ([]*query.Join, *query.Projection, error) {
	cols := p.schema.Columns(view)
	if !contains(cols, "id") {
		return nil, nil, nil
	}

	var proj []any
	if len(paths) > 0 && !(len(paths) == 1 && paths[0] == "*") {
		include := map[string]bool{}
		for _, path := range paths {
			switch {
			case strings.Contains(path, "_ref") && !contains(cols, path):
				// a dotted deref path: keep the ref column so the join
				// subtree survives, project later from the join output
				part, _, _ := strings.Cut(path, ".")
				include[part] = true
			case contains(cols, path):
				include[path] = true
				col, err := query.NewColumn(path, view, "")
				if err != nil {
					return nil, nil, err
				}
				proj = append(proj, col)
			default:
				include[path] = true
				proj = append(proj, path)
			}
		}
		var kept []string
		for _, c := range cols {
			if include[c] {
				kept = append(kept, c)
			}
		}
		cols = kept
	}

	for _, col := range cols {
		if strings.HasSuffix(col, "_ref") &&
			!(view == "relationship" && (col == "source_ref" || col == "target_ref")) {
			continue
		}
		c, err := query.NewColumn(col, view, "")
		if err != nil {
			return nil, nil, err
		}
		proj = append(proj, c)
	}

	types := map[string]bool{}
	for _, t := range p.schema.Types() {
		types[t] = true
	}
	mixedIPs := types["ipv4-addr"] && types["ipv6-addr"]

	root := p.dfs(view, p.schema.TableType(view), nil, "", types)

	var joins []*query.Join
	aliases := map[string]string{}
	for _, node := range preorder(root) {
		if node.parent != nil {
			path := node.path()
			parent := node.parent.table
			if a, ok := aliases[parent]; ok {
				parent = a
			}
			alias := pathAlias(path)
			aliases[node.table] = alias
			if mixedIPs && strings.HasPrefix(node.table, "ipv") {
				ipJoins, err := p.joinIPTables(&proj, path, node.edge, parent)
				if err != nil {
					return nil, nil, err
				}
				joins = append(joins, ipJoins...)
			} else {
				j, err := p.makeJoin(&proj, parent, node.edge, node.table, path)
				if err != nil {
					return nil, nil, err
				}
				joins = append(joins, j)
			}
		}
		if node.table == "process" && p.schema.HasColumn("process", "parent_ref") {
			j, err := p.parentProcessJoin(&proj, node, aliases, view)
			if err != nil {
				return nil, nil, err
			}
			joins = append(joins, j)
		}
	}

	if len(paths) > 0 && !(len(paths) == 1 && paths[0] == "*") {
		proj = reorderProjection(proj, paths)
	}
	projection, err := query.NewProjection(proj...)
	if err != nil {
		return nil, nil, err
	}
	return joins, projection, nil
}

// dfs builds the reference-dependency tree. A reference is followed when
// one of its candidate target types has a table in the schema, is not the
// current type, and is not on the ignore list.
func (p *Planner) dfs(table, scoType string, parent *refNode, edge string, types map[string]bool) *refNode {
	node := &refNode{table: table, edge: edge, parent: parent}
	if parent != nil {
		parent.children = append(parent.children, node)
	}
	ignored := p.ignore[scoType]
	for _, prop := range p.schema.Columns(table) {
		if !strings.HasSuffix(prop, "_ref") || contains(ignored, prop) {
			continue
		}
		var target string
		for _, cand := range p.dict.RefType(scoType, sco.LastSegment(prop)) {
			if types[cand] {
				target = cand
				break
			}
		}
		if target == "" || target == scoType {
			continue
		}
		p.dfs(target, target, node, prop, types)
	}
	return node
}

// makeJoin joins table as the target of ref and projects its non-reference
// columns, each aliased by the dotted path.
func (p *Planner) makeJoin(proj *[]any, lhs, ref, table string, path []string) (*query.Join, error) {
	alias := pathAlias(path)
	prefix := strings.Join(path, ".")
	for _, c := range p.schema.Columns(table) {
		if c == ref || strings.HasSuffix(c, "_ref") {
			continue
		}
		col, err := query.NewColumn(c, alias, prefix+"."+c)
		if err != nil {
			return nil, err
		}
		*proj = append(*proj, col)
	}
	return query.NewJoin(query.JoinSpec{
		Table:    table,
		LeftCol:  ref,
		Op:       "=",
		RightCol: "id",
		How:      "LEFT OUTER",
		Alias:    alias,
		LHS:      lhs,
	})
}

// joinIPTables handles a reference that may hit either address family: one
// join per family aliased "<prop>4"/"<prop>6", COALESCE over the columns
// both tables share, and plain projections for family-exclusive columns.
func (p *Planner) joinIPTables(proj *[]any, path []string, prop, lhs string) ([]*query.Join, error) {
	prefix := strings.Join(path, ".")
	var joins []*query.Join
	for _, n := range []string{"4", "6"} {
		j, err := query.NewJoin(query.JoinSpec{
			Table:    "ipv" + n + "-addr",
			LeftCol:  prop,
			Op:       "=",
			RightCol: "id",
			How:      "LEFT OUTER",
			Alias:    prop + n,
			LHS:      lhs,
		})
		if err != nil {
			return nil, err
		}
		joins = append(joins, j)
	}

	v4 := p.schema.Columns("ipv4-addr")
	v6 := p.schema.Columns("ipv6-addr")
	v6set := map[string]bool{}
	for _, c := range v6 {
		v6set[c] = true
	}
	v4set := map[string]bool{}
	for _, c := range v4 {
		v4set[c] = true
	}

	for _, c := range v4 {
		if c == prop || strings.HasSuffix(c, "_ref") {
			continue
		}
		if v6set[c] {
			cc, err := query.NewCoalescedColumn([]query.Column{
				{Name: c, Table: prop + "4"},
				{Name: c, Table: prop + "6"},
			}, prefix+"."+c)
			if err != nil {
				return nil, err
			}
			*proj = append(*proj, cc)
		} else {
			col, err := query.NewColumn(c, prop+"4", prefix+"."+c)
			if err != nil {
				return nil, err
			}
			*proj = append(*proj, col)
		}
	}
	for _, c := range v6 {
		if c == prop || strings.HasSuffix(c, "_ref") || v4set[c] {
			continue
		}
		col, err := query.NewColumn(c, prop+"6", prefix+"."+c)
		if err != nil {
			return nil, err
		}
		*proj = append(*proj, col)
	}
	return joins, nil
}

// parentProcessJoin adds the one extra hop for a process's parent_ref
// self-reference, which the cycle guard in dfs cannot follow.
func (p *Planner) parentProcessJoin(proj *[]any, node *refNode, aliases map[string]string, view string) (*query.Join, error) {
	path := append(node.path(), "parent_ref")
	alias := pathAlias(path)
	lhs := view
	if node.parent != nil {
		lhs = aliases[node.table]
	}
	prefix := strings.Join(path, ".")
	for _, c := range p.schema.Columns("process") {
		if c == "parent_ref" || strings.HasSuffix(c, "_ref") {
			continue
		}
		col, err := query.NewColumn(c, alias, prefix+"."+c)
		if err != nil {
			return nil, err
		}
		*proj = append(*proj, col)
	}
	return query.NewJoin(query.JoinSpec{
		Table:    "process",
		LeftCol:  "parent_ref",
		Op:       "=",
		RightCol: "id",
		How:      "LEFT OUTER",
		Alias:    alias,
		LHS:      lhs,
	})
}

// reorderProjection trims the projection down to the requested paths, in
// request order. Entries are keyed by output alias, then by column name;
// paths that planned nothing pass through as plain column names.
func reorderProjection(proj []any, paths []string) []any {
	byName := map[string]any{}
	for _, entry := range proj {
		switch v := entry.(type) {
		case query.Column:
			name := v.Alias
			if name == "" {
				name = v.Name
			}
			byName[name] = v
		case query.CoalescedColumn:
			byName[v.Alias] = v
		case string:
			byName[v] = v
		}
	}
	out := make([]any, 0, len(paths))
	for _, path := range paths {
		if entry, ok := byName[path]; ok {
			out = append(out, entry)
		} else {
			out = append(out, path)
		}
	}
	return out
}

func preorder(root *refNode) []*refNode {
	nodes := []*refNode{root}
	for _, c := range root.children {
		nodes = append(nodes, preorder(c)...)
	}
	return nodes
}

func pathAlias(path []string) string {
	return strings.Join(path, "__")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
