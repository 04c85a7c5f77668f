package deref

import (
	"errors"
	"strings"
	"testing"

	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/sco"
	"github.com/scorchdb/scorch/internal/validate"
)

func connSchema(withIPv6 bool) *sco.SchemaContext {
	defs := map[string][]sco.ColumnDef{
		"conns": {
			{Name: "id", Type: "TEXT"},
			{Name: "src_ref", Type: "TEXT"},
			{Name: "dst_ref", Type: "TEXT"},
			{Name: "src_port", Type: "INTEGER"},
			{Name: "dst_port", Type: "INTEGER"},
			{Name: "protocols", Type: "TEXT"},
		},
		"network-traffic": {
			{Name: "id", Type: "TEXT"},
			{Name: "src_ref", Type: "TEXT"},
			{Name: "dst_ref", Type: "TEXT"},
			{Name: "src_port", Type: "INTEGER"},
			{Name: "dst_port", Type: "INTEGER"},
			{Name: "protocols", Type: "TEXT"},
		},
		"ipv4-addr": {
			{Name: "id", Type: "TEXT"},
			{Name: "value", Type: "TEXT"},
		},
	}
	if withIPv6 {
		defs["ipv6-addr"] = []sco.ColumnDef{
			{Name: "id", Type: "TEXT"},
			{Name: "value", Type: "TEXT"},
		}
	}
	return sco.NewSchemaContext(defs, map[string]string{"conns": "network-traffic"})
}

func renderJoins(t *testing.T, base string, joins []*query.Join, proj *query.Projection) string {
	t.Helper()
	q, err := query.From(base)
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range joins {
		if err := q.Append(j); err != nil {
			t.Fatal(err)
		}
	}
	if proj != nil {
		if err := q.Append(proj); err != nil {
			t.Fatal(err)
		}
	}
	text, _, err := q.Render(query.Question)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return text
}

func TestResolvePathSingleHop(t *testing.T) {
	p := NewPlanner(connSchema(false), nil)
	joins, table, col, err := p.ResolvePath("conns", "network-traffic", "src_ref.value")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if len(joins) != 1 {
		t.Fatalf("joins = %d, want 1", len(joins))
	}
	if table != "src_ref" || col != "value" {
		t.Errorf("target = %q.%q, want src_ref.value", table, col)
	}
	text := renderJoins(t, "conns", joins, nil)
	want := `LEFT OUTER JOIN "ipv4-addr" AS "src_ref" ON "conns"."src_ref" = "src_ref"."id"`
	if !strings.Contains(text, want) {
		t.Errorf("rendered %q, want fragment %q", text, want)
	}
}

func TestResolvePathChain(t *testing.T) {
	schema := sco.NewSchemaContext(map[string][]sco.ColumnDef{
		"process":   {{Name: "id"}, {Name: "name"}, {Name: "binary_ref"}},
		"file":      {{Name: "id"}, {Name: "name"}, {Name: "parent_directory_ref"}},
		"directory": {{Name: "id"}, {Name: "path"}},
	}, nil)
	p := NewPlanner(schema, nil)
	joins, table, col, err := p.ResolvePath("process", "process", "binary_ref.parent_directory_ref.path")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if len(joins) != 2 {
		t.Fatalf("joins = %d, want 2", len(joins))
	}
	if table != "binary_ref__parent_directory_ref" || col != "path" {
		t.Errorf("target = %q.%q", table, col)
	}
	text := renderJoins(t, "process", joins, nil)
	for _, want := range []string{
		`LEFT OUTER JOIN "file" AS "binary_ref" ON "process"."binary_ref" = "binary_ref"."id"`,
		`LEFT OUTER JOIN "directory" AS "binary_ref__parent_directory_ref" ON "binary_ref"."parent_directory_ref" = "binary_ref__parent_directory_ref"."id"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered %q, want fragment %q", text, want)
		}
	}
}

func TestResolvePathDottedLeaf(t *testing.T) {
	p := NewPlanner(connSchema(false), nil)
	joins, table, col, err := p.ResolvePath("files", "file", "hashes.'SHA-256'")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if len(joins) != 0 {
		t.Errorf("joins = %d, want 0", len(joins))
	}
	if table != "files" || col != "hashes.'SHA-256'" {
		t.Errorf("target = %q.%q", table, col)
	}
}

func TestResolvePathUnknownRef(t *testing.T) {
	p := NewPlanner(connSchema(false), nil)
	_, _, _, err := p.ResolvePath("foo", "foo", "bar_ref.value")
	var bad *validate.InvalidPathError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &bad) {
		t.Errorf("error = %v, want *InvalidPathError", err)
	}
}

func TestResolvePathRefList(t *testing.T) {
	schema := sco.NewSchemaContext(map[string][]sco.ColumnDef{
		"x-oca-asset": {{Name: "id"}, {Name: "hostname"}},
		"ipv4-addr":   {{Name: "id"}, {Name: "value"}},
	}, nil)
	p := NewPlanner(schema, nil)
	joins, table, col, err := p.ResolvePath("x-oca-asset", "x-oca-asset", "ip_refs.value")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if len(joins) != 2 {
		t.Fatalf("joins = %d, want 2", len(joins))
	}
	if table != "ip_refs" || col != "value" {
		t.Errorf("target = %q.%q", table, col)
	}
	q, err := query.From("x-oca-asset")
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range joins {
		if err := q.Append(j); err != nil {
			t.Fatal(err)
		}
	}
	text, values, err := q.Render(query.Question)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`LEFT OUTER JOIN "__reflist" AS "ip_refs__reflist" ON ("ip_refs__reflist"."source_ref" = "x-oca-asset"."id") AND ("ip_refs__reflist"."ref_name" = ?)`,
		`LEFT OUTER JOIN "ipv4-addr" AS "ip_refs" ON "ip_refs__reflist"."target_ref" = "ip_refs"."id"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered %q, want fragment %q", text, want)
		}
	}
	if len(values) != 1 || values[0] != "ip_refs" {
		t.Errorf("values = %v, want [ip_refs]", values)
	}
}

func TestAutoDeref(t *testing.T) {
	p := NewPlanner(connSchema(false), nil)
	joins, proj, err := p.AutoDeref("conns", nil)
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	if len(joins) != 2 {
		t.Fatalf("joins = %d, want 2", len(joins))
	}
	// 4 plain view columns plus id and value from each address join
	if got := len(proj.Columns()); got != 8 {
		t.Errorf("projection size = %d, want 8", got)
	}
	text := renderJoins(t, "conns", joins, proj)
	for _, want := range []string{
		`"src_ref"."value" AS "src_ref.value"`,
		`"dst_ref"."value" AS "dst_ref.value"`,
		`LEFT OUTER JOIN "ipv4-addr" AS "dst_ref" ON "conns"."dst_ref" = "dst_ref"."id"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered %q, want fragment %q", text, want)
		}
	}
}

func TestAutoDerefPaths(t *testing.T) {
	p := NewPlanner(connSchema(false), nil)
	joins, proj, err := p.AutoDeref("conns", []string{"src_ref.value"})
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	if len(joins) != 2 {
		t.Errorf("joins = %d, want 2", len(joins))
	}
	cols := proj.Columns()
	if len(cols) != 1 {
		t.Fatalf("projection size = %d, want 1", len(cols))
	}
	if got, want := cols[0].String(), `"src_ref"."value" AS "src_ref.value"`; got != want {
		t.Errorf("projection = %q, want %q", got, want)
	}
}

func TestAutoDerefMixedAddressFamilies(t *testing.T) {
	p := NewPlanner(connSchema(true), nil)
	joins, proj, err := p.AutoDeref("conns", nil)
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	// 2 directions x 2 address families
	if len(joins) != 4 {
		t.Fatalf("joins = %d, want 4", len(joins))
	}
	text := renderJoins(t, "conns", joins, proj)
	for _, want := range []string{
		`LEFT OUTER JOIN "ipv4-addr" AS "src_ref4" ON "conns"."src_ref" = "src_ref4"."id"`,
		`LEFT OUTER JOIN "ipv6-addr" AS "src_ref6" ON "conns"."src_ref" = "src_ref6"."id"`,
		`LEFT OUTER JOIN "ipv4-addr" AS "dst_ref4" ON "conns"."dst_ref" = "dst_ref4"."id"`,
		`LEFT OUTER JOIN "ipv6-addr" AS "dst_ref6" ON "conns"."dst_ref" = "dst_ref6"."id"`,
		`COALESCE("src_ref4"."value", "src_ref6"."value") AS "src_ref.value"`,
		`COALESCE("dst_ref4"."value", "dst_ref6"."value") AS "dst_ref.value"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered %q, want fragment %q", text, want)
		}
	}
}

func TestAutoDerefAggregateView(t *testing.T) {
	schema := sco.NewSchemaContext(map[string][]sco.ColumnDef{
		"port_counts": {{Name: "dst_port"}, {Name: "count"}},
	}, nil)
	p := NewPlanner(schema, nil)
	joins, proj, err := p.AutoDeref("port_counts", nil)
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	if joins != nil || proj != nil {
		t.Errorf("got joins=%v proj=%v, want none for a view without id", joins, proj)
	}
}

func TestAutoDerefParentProcess(t *testing.T) {
	schema := sco.NewSchemaContext(map[string][]sco.ColumnDef{
		"process": {
			{Name: "id"}, {Name: "name"}, {Name: "pid"},
			{Name: "binary_ref"}, {Name: "parent_ref"},
		},
		"file":      {{Name: "id"}, {Name: "name"}, {Name: "parent_directory_ref"}},
		"directory": {{Name: "id"}, {Name: "path"}},
	}, nil)
	p := NewPlanner(schema, nil)
	joins, proj, err := p.AutoDeref("process", nil)
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	if len(joins) != 3 {
		t.Fatalf("joins = %d, want 3", len(joins))
	}
	text := renderJoins(t, "process", joins, proj)
	for _, want := range []string{
		`LEFT OUTER JOIN "process" AS "parent_ref" ON "process"."parent_ref" = "parent_ref"."id"`,
		`LEFT OUTER JOIN "file" AS "binary_ref" ON "process"."binary_ref" = "binary_ref"."id"`,
		`LEFT OUTER JOIN "directory" AS "binary_ref__parent_directory_ref"`,
		`"parent_ref"."name" AS "parent_ref.name"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered %q, want fragment %q", text, want)
		}
	}
}

func TestAutoDerefIgnore(t *testing.T) {
	schema := sco.NewSchemaContext(map[string][]sco.ColumnDef{
		"x-oca-asset": {
			{Name: "id"}, {Name: "hostname"}, {Name: "parent_process_ref"},
		},
		"process": {{Name: "id"}, {Name: "name"}},
	}, nil)
	p := NewPlanner(schema, nil)
	joins, _, err := p.AutoDeref("x-oca-asset", nil)
	if err != nil {
		t.Fatalf("AutoDeref: %v", err)
	}
	if len(joins) != 0 {
		t.Errorf("joins = %d, want 0 with parent_process_ref ignored", len(joins))
	}
}
