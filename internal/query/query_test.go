package query

import (
	"errors"
	"reflect"
	"testing"
)

func mustFilter(t *testing.T, op string, preds ...*Predicate) *Filter {
	t.Helper()
	f, err := NewFilter(preds, op)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return f
}

func mustProjection(t *testing.T, cols ...any) *Projection {
	t.Helper()
	p, err := NewProjection(cols...)
	if err != nil {
		t.Fatalf("NewProjection: %v", err)
	}
	return p
}

func render(t *testing.T, q *Query, ph Placeholder) (string, []any) {
	t.Helper()
	text, values, err := q.Render(ph)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return text, values
}

func TestQueryBuildsIncrementally(t *testing.T) {
	q, err := From("my_table")
	if err != nil {
		t.Fatal(err)
	}
	text, _ := render(t, q, Format)
	if want := `SELECT * FROM "my_table"`; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}

	if err := q.Append(mustProjection(t, "foo", "bar", "baz")); err != nil {
		t.Fatal(err)
	}
	text, _ = render(t, q, Format)
	if want := `SELECT "foo", "bar", "baz" FROM "my_table"`; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}

	where := mustFilter(t, "",
		mustPredicate(t, "foo", "!=", 0),
		mustPredicate(t, "bar", "LIKE", "%blah%"))
	if err := q.Append(where); err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT "foo", "bar", "baz" FROM "my_table" WHERE ("foo" != %s) AND ("bar" LIKE %s)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0, "%blah%"}) {
		t.Errorf("values = %v", values)
	}

	order, err := NewOrder("bar", OrderTerm{Col: Column{Name: "baz"}, Dir: Desc})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Append(order); err != nil {
		t.Fatal(err)
	}
	text, values = render(t, q, Format)
	want += ` ORDER BY "bar" ASC, "baz" DESC`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if len(values) != 2 {
		t.Errorf("values = %v", values)
	}
}

func TestQueryOrFilterLimitOffset(t *testing.T) {
	q, err := From("my_table", mustFilter(t, OpOr,
		mustPredicate(t, "foo", "!=", 0),
		mustPredicate(t, "bar", "LIKE", "%blah%")))
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT * FROM "my_table" WHERE (("foo" != %s) OR ("bar" LIKE %s))`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0, "%blah%"}) {
		t.Errorf("values = %v", values)
	}

	if err := q.Append(Limit(10)); err != nil {
		t.Fatal(err)
	}
	text, _ = render(t, q, Format)
	if want += " LIMIT 10"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}

	if err := q.Append(Offset(10)); err != nil {
		t.Fatal(err)
	}
	text, values = render(t, q, Question)
	qwant := `SELECT * FROM "my_table" WHERE (("foo" != ?) OR ("bar" LIKE ?)) LIMIT 10 OFFSET 10`
	if text != qwant {
		t.Errorf("text = %q, want %q", text, qwant)
	}
	if len(values) != 2 {
		t.Errorf("values = %v", values)
	}
}

func TestQueryNullInFilter(t *testing.T) {
	q, err := From("my_table", mustFilter(t, "",
		mustPredicate(t, "foo", "!=", "null"),
		mustPredicate(t, "bar", "LIKE", "%blah%")))
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT * FROM "my_table" WHERE ("foo" IS NOT NULL) AND ("bar" LIKE %s)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{"%blah%"}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryListPropertyRewrite(t *testing.T) {
	tests := []struct {
		name string
		op   string
		want string
	}{
		{name: "equality becomes LIKE", op: "=", want: `SELECT * FROM "my_table" WHERE ("foo" LIKE %s)`},
		{name: "inequality becomes NOT LIKE", op: "!=", want: `SELECT * FROM "my_table" WHERE ("foo" NOT LIKE %s)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo[*]", tt.op, "bar")))
			if err != nil {
				t.Fatal(err)
			}
			text, values := render(t, q, Format)
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
			if !reflect.DeepEqual(values, []any{"%bar%"}) {
				t.Errorf("values = %v", values)
			}
		})
	}
}

func TestQueryFilterIn(t *testing.T) {
	q, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo", "IN", []any{1, 2, 3})))
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT * FROM "my_table" WHERE ("foo" IN (%s, %s, %s))`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{1, 2, 3}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryDoubleFilter(t *testing.T) {
	q, err := From("my_table",
		mustFilter(t, OpOr,
			mustPredicate(t, "foo", "=", 0),
			mustPredicate(t, "bar", "=", 1)),
		mustFilter(t, "",
			mustPredicate(t, "baz", "!=", 2),
			mustPredicate(t, "buz", "!=", 3)))
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT * FROM "my_table" WHERE (("foo" = %s) OR ("bar" = %s)) AND ("baz" != %s) AND ("buz" != %s)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0, 1, 2, 3}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryGroupAggregationHaving(t *testing.T) {
	q, err := From("my_table", mustFilter(t, "",
		mustPredicate(t, "foo", "!=", "null"),
		mustPredicate(t, "bar", "LIKE", "%blah%")))
	if err != nil {
		t.Fatal(err)
	}
	group, err := NewGroup("baz")
	if err != nil {
		t.Fatal(err)
	}
	aggs, err := NewAggregation([]Agg{{Func: "SUM", Col: "foo", Alias: "TotalFoo"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Extend([]Stage{group, aggs}); err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT "baz", SUM("foo") AS "TotalFoo" FROM "my_table" WHERE ("foo" IS NOT NULL) AND ("bar" LIKE %s) GROUP BY "baz"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{"%blah%"}) {
		t.Errorf("values = %v", values)
	}

	// A filter added after grouping routes to HAVING.
	if err := q.Append(mustFilter(t, "", mustPredicate(t, "TotalFoo", ">=", 10))); err != nil {
		t.Fatal(err)
	}
	text, values = render(t, q, Format)
	want += ` HAVING ("TotalFoo" >= %s)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{"%blah%", 10}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryAggregationAfterProjectionFails(t *testing.T) {
	q, err := From("my_table", mustProjection(t, "foo", "bar", "baz"))
	if err != nil {
		t.Fatal(err)
	}
	group, err := NewGroup("baz")
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Append(group); err != nil {
		t.Fatal(err)
	}
	aggs, err := NewAggregation([]Agg{{Func: "SUM", Col: "foo", Alias: "TotalFoo"}})
	if err != nil {
		t.Fatal(err)
	}
	err = q.Append(aggs)
	var iq *InvalidQueryError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &iq) {
		t.Errorf("error = %v, want *InvalidQueryError", err)
	}
}

func TestQueryAggregationWithoutGroup(t *testing.T) {
	tests := []struct {
		name string
		agg  Agg
		want string
	}{
		{
			name: "with alias",
			agg:  Agg{Func: "SUM", Col: "foo", Alias: "TotalFoo"},
			want: `SELECT SUM("foo") AS "TotalFoo" FROM "my_table"`,
		},
		{
			name: "default alias",
			agg:  Agg{Func: "SUM", Col: "foo"},
			want: `SELECT SUM("foo") AS "sum" FROM "my_table"`,
		},
		{
			name: "distinct count",
			agg:  Agg{Func: "NUNIQUE", Col: "foo", Alias: "n"},
			want: `SELECT COUNT(DISTINCT "foo") AS "n" FROM "my_table"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggs, err := NewAggregation([]Agg{tt.agg})
			if err != nil {
				t.Fatal(err)
			}
			q, err := From("my_table", aggs)
			if err != nil {
				t.Fatal(err)
			}
			text, _ := render(t, q, Format)
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestQueryRejectsBadAggregateFunction(t *testing.T) {
	_, err := NewAggregation([]Agg{{Func: "EXPLODE", Col: "foo"}})
	var bad *InvalidAggregateFunctionError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &bad) {
		t.Errorf("error = %v, want *InvalidAggregateFunctionError", err)
	}
}

func TestQueryCountGroup(t *testing.T) {
	group, err := NewGroup("baz")
	if err != nil {
		t.Fatal(err)
	}
	aggs, err := NewAggregation([]Agg{{Func: "COUNT", Alias: "count"}})
	if err != nil {
		t.Fatal(err)
	}
	q, err := From("my_table", group, aggs)
	if err != nil {
		t.Fatal(err)
	}
	text, _ := render(t, q, Question)
	want := `SELECT "baz", COUNT(*) AS "count" FROM "my_table" GROUP BY "baz"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

// Every combination of Unique, Count and Projection and the statement shape
// each one renders.
func TestQueryDistinctCountForms(t *testing.T) {
	tests := []struct {
		name   string
		stages []Stage
		want   string
	}{
		{
			name:   "count",
			stages: []Stage{Count{}},
			want:   `SELECT COUNT(*) AS "count" FROM "my_table"`,
		},
		{
			name:   "unique",
			stages: []Stage{Unique{}},
			want:   `SELECT DISTINCT * FROM "my_table"`,
		},
		{
			name:   "unique then count",
			stages: []Stage{Unique{}, Count{}},
			want:   `SELECT COUNT(*) AS "count" FROM (SELECT DISTINCT * FROM "my_table") AS tmp`,
		},
		{
			name:   "count unique",
			stages: []Stage{CountUnique{}},
			want:   `SELECT COUNT(*) AS "count" FROM (SELECT DISTINCT * FROM "my_table") AS tmp`,
		},
		{
			name:   "projection then unique",
			stages: []Stage{projStage("foo", "bar"), Unique{}},
			want:   `SELECT DISTINCT "foo", "bar" FROM "my_table"`,
		},
		{
			name:   "single column unique",
			stages: []Stage{projStage("foo"), Unique{}},
			want:   `SELECT DISTINCT "foo" FROM "my_table"`,
		},
		{
			name:   "projection then count unique",
			stages: []Stage{projStage("foo", "bar"), CountUnique{}},
			want:   `SELECT COUNT(DISTINCT "foo", "bar") AS "count" FROM "my_table"`,
		},
		{
			name:   "count unique with columns",
			stages: []Stage{CountUnique{Cols: []string{"foo", "bar"}}},
			want:   `SELECT COUNT(DISTINCT "foo", "bar") AS "count" FROM "my_table"`,
		},
		{
			name:   "projection unique count",
			stages: []Stage{projStage("foo", "bar"), Unique{}, Count{}},
			want:   `SELECT COUNT(DISTINCT "foo", "bar") AS "count" FROM "my_table"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := From("my_table", tt.stages...)
			if err != nil {
				t.Fatal(err)
			}
			text, _ := render(t, q, Format)
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestQueryCountWithFilter(t *testing.T) {
	q, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo", "=", 1)), Count{})
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Question)
	want := `SELECT COUNT(*) AS "count" FROM "my_table" WHERE ("foo" = ?)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{1}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryJoin(t *testing.T) {
	q, err := From("left_table")
	if err != nil {
		t.Fatal(err)
	}
	join, err := NewJoin(JoinSpec{Table: "right_table", LeftCol: "left_col", Op: "=", RightCol: "right_col"})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Append(join); err != nil {
		t.Fatal(err)
	}
	text, _ := render(t, q, Format)
	want := `SELECT * FROM "left_table" INNER JOIN "right_table" ON "left_table"."left_col" = "right_table"."right_col"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestQueryJoinChain(t *testing.T) {
	j2, err := NewJoin(JoinSpec{Table: "table2", LeftCol: "col1", Op: "=", RightCol: "col2"})
	if err != nil {
		t.Fatal(err)
	}
	j3, err := NewJoin(JoinSpec{Table: "table3", LeftCol: "col3", Op: "=", RightCol: "col4"})
	if err != nil {
		t.Fatal(err)
	}
	q, err := From("table1", j2, j3)
	if err != nil {
		t.Fatal(err)
	}
	text, _ := render(t, q, Format)
	want := `SELECT * FROM "table1" INNER JOIN "table2" ON "table1"."col1" = "table2"."col2" INNER JOIN "table3" ON "table2"."col3" = "table3"."col4"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestQueryJoinAlias(t *testing.T) {
	j, err := NewJoin(JoinSpec{Table: "right_table", LeftCol: "left_col", Op: "=", RightCol: "right_col", How: "left outer", Alias: "rt"})
	if err != nil {
		t.Fatal(err)
	}
	q, err := From("left_table", j)
	if err != nil {
		t.Fatal(err)
	}
	text, _ := render(t, q, Format)
	want := `SELECT * FROM "left_table" LEFT OUTER JOIN "right_table" AS "rt" ON "left_table"."left_col" = "rt"."right_col"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestQueryJoinFilterUnique(t *testing.T) {
	j, err := NewJoin(JoinSpec{Table: "right_table", LeftCol: "left_col", Op: "=", RightCol: "right_col"})
	if err != nil {
		t.Fatal(err)
	}
	q, err := From("left_table",
		j,
		mustFilter(t, "", mustPredicate(t, "foo", "=", "bar")),
		mustProjection(t, "baz"),
		Unique{})
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT DISTINCT "baz" FROM "left_table" INNER JOIN "right_table" ON "left_table"."left_col" = "right_table"."right_col" WHERE ("foo" = %s)`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{"bar"}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryJoinWithoutTable(t *testing.T) {
	q, err := New()
	if err != nil {
		t.Fatal(err)
	}
	j, err := NewJoin(JoinSpec{Table: "right_table", LeftCol: "left_col", Op: "=", RightCol: "right_col"})
	if err != nil {
		t.Fatal(err)
	}
	err = q.Append(j)
	var iq *InvalidQueryError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &iq) {
		t.Errorf("error = %v, want *InvalidQueryError", err)
	}
}

func TestQueryJoinRejectsBadOperator(t *testing.T) {
	_, err := NewJoin(JoinSpec{Table: "t", LeftCol: "a", Op: "MATCHES", RightCol: "b"})
	var bad *InvalidJoinOperatorError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &bad) {
		t.Errorf("error = %v, want *InvalidJoinOperatorError", err)
	}
}

func TestQueryOrderQualifiedColumn(t *testing.T) {
	col, err := NewColumn("foo", "my_table", "")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		term any
		want string
	}{
		{name: "ascending", term: col, want: `SELECT * FROM "my_table" ORDER BY "my_table"."foo" ASC`},
		{name: "descending", term: OrderTerm{Col: col, Dir: Desc}, want: `SELECT * FROM "my_table" ORDER BY "my_table"."foo" DESC`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(tt.term)
			if err != nil {
				t.Fatal(err)
			}
			q, err := From("my_table", order)
			if err != nil {
				t.Fatal(err)
			}
			text, _ := render(t, q, Format)
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestQuerySubqueryBase(t *testing.T) {
	sub, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo", ">", 0)))
	if err != nil {
		t.Fatal(err)
	}
	group, err := NewGroup("baz")
	if err != nil {
		t.Fatal(err)
	}
	aggs, err := NewAggregation([]Agg{{Func: "SUM", Col: "foo", Alias: "TotalFoo"}})
	if err != nil {
		t.Fatal(err)
	}
	q, err := New(sub, group, aggs)
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT "baz", SUM("foo") AS "TotalFoo" FROM (SELECT * FROM "my_table" WHERE ("foo" > %s)) AS s1 GROUP BY "baz"`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0}) {
		t.Errorf("values = %v", values)
	}
}

func TestQuerySubqueryInPredicate(t *testing.T) {
	sub, err := From("some_view", mustProjection(t, "some_ref"))
	if err != nil {
		t.Fatal(err)
	}
	q, err := From("some-type", mustFilter(t, "", mustPredicate(t, "id", "IN", sub)))
	if err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Format)
	want := `SELECT * FROM "some-type" WHERE ("id" IN (SELECT "some_ref" FROM "some_view"))`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if len(values) != 0 {
		t.Errorf("values = %v", values)
	}
}

func TestQueryOrdinalPlaceholders(t *testing.T) {
	sub, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo", ">", 0)))
	if err != nil {
		t.Fatal(err)
	}
	q, err := New(sub)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Append(mustFilter(t, "",
		mustPredicate(t, "bar", "=", 1),
		mustPredicate(t, "baz", "IN", []any{2, 3}))); err != nil {
		t.Fatal(err)
	}
	text, values := render(t, q, Dollar)
	want := `SELECT * FROM (SELECT * FROM "my_table" WHERE ("foo" > $1)) AS s1 WHERE ("bar" = $2) AND ("baz" IN ($3, $4))`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if !reflect.DeepEqual(values, []any{0, 1, 2, 3}) {
		t.Errorf("values = %v", values)
	}
}

func TestQueryRenderIsRepeatable(t *testing.T) {
	q, err := From("my_table", mustFilter(t, "", mustPredicate(t, "foo", "=", 1)))
	if err != nil {
		t.Fatal(err)
	}
	first, fv := render(t, q, Dollar)
	second, sv := render(t, q, Dollar)
	if first != second {
		t.Errorf("renders differ: %q vs %q", first, second)
	}
	if !reflect.DeepEqual(fv, sv) {
		t.Errorf("values differ: %v vs %v", fv, sv)
	}
}

func projStage(cols ...string) Stage {
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = c
	}
	p, err := NewProjection(args...)
	if err != nil {
		panic(err)
	}
	return p
}
