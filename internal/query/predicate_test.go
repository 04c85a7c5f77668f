package query

import (
	"reflect"
	"strings"
	"testing"
)

func mustPredicate(t *testing.T, lhs any, op string, rhs any) *Predicate {
	t.Helper()
	p, err := NewPredicate(lhs, op, rhs)
	if err != nil {
		t.Fatalf("NewPredicate(%v, %q, %v): %v", lhs, op, rhs, err)
	}
	return p
}

func TestPredicateBindsValues(t *testing.T) {
	tests := []struct {
		name string
		lhs  string
		op   string
		rhs  any
	}{
		{name: "equals int", lhs: "foo", op: "=", rhs: 99},
		{name: "gte int", lhs: "bar", op: ">=", rhs: 99},
		{name: "like string", lhs: "baz", op: "LIKE", rhs: "%blah%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPredicate(t, tt.lhs, tt.op, tt.rhs)
			text, values, err := p.Render(Question)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if strings.Contains(text, "99") || strings.Contains(text, "blah") {
				t.Errorf("value leaked into SQL text: %q", text)
			}
			if !strings.Contains(text, "?") {
				t.Errorf("no placeholder in %q", text)
			}
			if len(values) != 1 || !reflect.DeepEqual(values[0], tt.rhs) {
				t.Errorf("values = %v, want [%v]", values, tt.rhs)
			}
		})
	}
}

func TestPredicateNull(t *testing.T) {
	tests := []struct {
		name string
		lhs  string
		op   string
		rhs  any
		want string
	}{
		{name: "is null", lhs: "foo", op: "=", rhs: "null", want: `("foo" IS NULL)`},
		{name: "is not null", lhs: "bar", op: "!=", rhs: "NULL", want: `("bar" IS NOT NULL)`},
		{name: "nil rhs", lhs: "foo", op: "=", rhs: nil, want: `("foo" IS NULL)`},
		{name: "list marker stripped", lhs: "baz[*]", op: "=", rhs: "NULL", want: `("baz" IS NULL)`},
		{name: "dotted list marker stripped", lhs: "next.name[*]", op: "!=", rhs: "null", want: `("next.name" IS NOT NULL)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPredicate(t, tt.lhs, tt.op, tt.rhs)
			text, values, err := p.Render(Question)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
			if len(values) != 0 {
				t.Errorf("values = %v, want none", values)
			}
		})
	}
}

func TestCompoundPredicate(t *testing.T) {
	t.Run("and", func(t *testing.T) {
		p := mustPredicate(t,
			mustPredicate(t, "foo", ">", 5),
			OpAnd,
			mustPredicate(t, "bar", "LIKE", "baz%"))
		text, values, err := p.Render(Question)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		want := `(("foo" > ?) AND ("bar" LIKE ?))`
		if text != want {
			t.Errorf("text = %q, want %q", text, want)
		}
		if !reflect.DeepEqual(values, []any{5, "baz%"}) {
			t.Errorf("values = %v", values)
		}
	})

	t.Run("or with subquery", func(t *testing.T) {
		sub, err := From("my_table")
		if err != nil {
			t.Fatal(err)
		}
		filt, err := NewFilter([]*Predicate{mustPredicate(t, "blah", "=", 0)}, "")
		if err != nil {
			t.Fatal(err)
		}
		proj, err := NewProjection("blah")
		if err != nil {
			t.Fatal(err)
		}
		if err := sub.Extend([]Stage{filt, proj}); err != nil {
			t.Fatal(err)
		}
		p := mustPredicate(t,
			mustPredicate(t, "foo", "=", 5),
			OpOr,
			mustPredicate(t, "bar", "IN", sub))
		text, values, err := p.Render(Question)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		want := `(("foo" = ?) OR ("bar" IN (SELECT "blah" FROM "my_table" WHERE ("blah" = ?))))`
		if text != want {
			t.Errorf("text = %q, want %q", text, want)
		}
		if !reflect.DeepEqual(values, []any{5, 0}) {
			t.Errorf("values = %v", values)
		}
	})
}

func TestPredicateRejectsBadOperators(t *testing.T) {
	tests := []struct {
		name string
		lhs  any
		op   string
		rhs  any
	}{
		{name: "unknown word", lhs: "foo", op: "asdf", rhs: 99},
		{name: "unlike", lhs: "baz", op: "UNLIKE", rhs: "%blah%"},
		{name: "null with less-than", lhs: "baz", op: "<", rhs: nil},
		{name: "and over scalars", lhs: "foo", op: OpAnd, rhs: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPredicate(tt.lhs, tt.op, tt.rhs); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPredicateRejectsBadIdentifiers(t *testing.T) {
	tests := []string{
		`foo" OR 1=1 --`,
		"foo;drop",
		"a b",
	}
	for _, lhs := range tests {
		t.Run(lhs, func(t *testing.T) {
			if _, err := NewPredicate(lhs, "=", 1); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPredicateSetTable(t *testing.T) {
	filt, err := NewFilter([]*Predicate{
		mustPredicate(t, "foo", "=", 0),
		mustPredicate(t, "bar", "=", 1),
	}, OpOr)
	if err != nil {
		t.Fatal(err)
	}
	if err := filt.SetTable("my_table"); err != nil {
		t.Fatalf("SetTable: %v", err)
	}
	q, err := From("my_table", filt)
	if err != nil {
		t.Fatal(err)
	}
	text, values, err := q.Render(Format)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `SELECT * FROM "my_table" WHERE (("my_table"."foo" = %s) OR ("my_table"."bar" = %s))`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0, 1}) {
		t.Errorf("values = %v", values)
	}
}

func TestPredicateSetTableKeepsQualifier(t *testing.T) {
	col, err := NewColumn("foo", "other", "")
	if err != nil {
		t.Fatal(err)
	}
	p := mustPredicate(t, col, "=", 0)
	p.setTable("my_table")
	text, _, err := p.Render(Question)
	if err != nil {
		t.Fatal(err)
	}
	want := `("other"."foo" = ?)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestPredicateListMembershipRewrite(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		rhs      any
		wantText string
		wantVal  any
	}{
		{name: "string equals", op: "=", rhs: "bar", wantText: `("foo" LIKE ?)`, wantVal: "%bar%"},
		{name: "string not equals", op: "!=", rhs: "bar", wantText: `("foo" NOT LIKE ?)`, wantVal: "%bar%"},
		{name: "int equals", op: "=", rhs: 5, wantText: `("foo" LIKE ?)`, wantVal: "%5%"},
		{name: "int diamond", op: "<>", rhs: 443, wantText: `("foo" NOT LIKE ?)`, wantVal: "%443%"},
		{name: "float equals", op: "=", rhs: 1.5, wantText: `("foo" LIKE ?)`, wantVal: "%1.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPredicate(t, "foo[*]", tt.op, tt.rhs)
			text, values, err := p.Render(Question)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if len(values) != 1 || values[0] != tt.wantVal {
				t.Errorf("values = %v, want [%v]", values, tt.wantVal)
			}
		})
	}
}
