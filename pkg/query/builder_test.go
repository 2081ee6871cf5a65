package query_test

import (
	"reflect"
	"testing"

	"github.com/arbiterhq/arbiter/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "widgets", "w").
		Project("id", "id").
		Project("name", "name").
		Project("status", "status").
		Project("created_at", "createdAt")
}

func TestBuildNoConditions(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).Build()

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("args: got %v, want none", args)
	}
}

func TestBuildParameterNumbering(t *testing.T) {
	status := "active"
	search := "gear"

	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("status", status).
		WhereGte("createdAt", "2026-01-01").
		WhereSearch(&search, "name", "status").
		Build()

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w" +
		" WHERE w.status = $1 AND w.created_at >= $2 AND (w.name ILIKE $3 OR w.status ILIKE $4)"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}

	wantArgs := []any{"active", "2026-01-01", "%gear%", "%gear%"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args: got %v, want %v", args, wantArgs)
	}
}

func TestBuildNilConditionsSkipped(t *testing.T) {
	var status *string
	var search *string

	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("status", status).
		WhereLte("createdAt", nil).
		WhereNull("status", false).
		WhereSearch(search, "name").
		Build()

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("args: got %v, want none", args)
	}
}

func TestBuildWhereNull(t *testing.T) {
	sql, _ := query.NewBuilder(testProjection()).
		WhereNull("createdAt", true).
		Build()

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w" +
		" WHERE w.created_at IS NULL"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
}

func TestBuildCount(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("status", "active").
		BuildCount()

	want := "SELECT COUNT(*) FROM public.widgets w WHERE w.status = $1"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "active" {
		t.Errorf("args: got %v, want [active]", args)
	}
}

func TestBuildPage(t *testing.T) {
	sql, _ := query.NewBuilder(testProjection(), query.SortField{Field: "createdAt", Descending: true}).
		BuildPage(3, 25)

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w" +
		" ORDER BY w.created_at DESC LIMIT 25 OFFSET 50"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("id", "abc")

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w WHERE w.id = $1"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args: got %v, want [abc]", args)
	}
}

func TestOrderByFieldsOverridesDefault(t *testing.T) {
	sql, _ := query.NewBuilder(testProjection(), query.SortField{Field: "createdAt", Descending: true}).
		OrderByFields([]query.SortField{{Field: "name"}, {Field: "status", Descending: true}}).
		Build()

	want := "SELECT w.id, w.name, w.status, w.created_at FROM public.widgets w" +
		" ORDER BY w.name ASC, w.status DESC"
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single ascending", "name", []query.SortField{{Field: "name"}}},
		{"single descending", "-createdAt", []query.SortField{{Field: "createdAt", Descending: true}}},
		{"mixed", "name,-createdAt", []query.SortField{
			{Field: "name"},
			{Field: "createdAt", Descending: true},
		}},
		{"whitespace and empties", " name , , -status ", []query.SortField{
			{Field: "name"},
			{Field: "status", Descending: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
