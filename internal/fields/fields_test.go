package fields_test

import (
	"testing"

	"github.com/arbiterhq/arbiter/internal/fields"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		code     string
		expected fields.Type
		ok       bool
	}{
		{"title", fields.TypeText, true},
		{"content", fields.TypeText, true},
		{"correspondent", fields.TypeText, true},
		{"document_type", fields.TypeText, true},
		{"document_date", fields.TypeDate, true},
		{"amount", fields.TypeNumber, true},
		{"tags", fields.TypeList, true},
		{"nonsense", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := fields.TypeOf(tt.code)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("type: got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidOperator(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		op       fields.Operator
		expected bool
	}{
		{"text equals", "title", fields.OpEquals, true},
		{"text regex", "content", fields.OpRegexMatch, true},
		{"text rejects date op", "title", fields.OpBefore, false},
		{"date before", "document_date", fields.OpBefore, true},
		{"date between", "document_date", fields.OpBetween, true},
		{"date rejects list op", "document_date", fields.OpIncludesAny, false},
		{"number gte", "amount", fields.OpGte, true},
		{"number between", "amount", fields.OpBetween, true},
		{"number rejects contains", "amount", fields.OpContains, false},
		{"list includes_any", "tags", fields.OpIncludesAny, true},
		{"list excludes_all", "tags", fields.OpExcludesAll, true},
		{"list rejects equals", "tags", fields.OpEquals, false},
		{"unknown field", "nonsense", fields.OpEquals, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fields.ValidOperator(tt.code, tt.op); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAssignable(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"title", true},
		{"correspondent", true},
		{"document_type", true},
		{"document_date", true},
		{"amount", true},
		{"tags", true},
		{"content", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := fields.Assignable(tt.code); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	entries := fields.Catalog()
	if len(entries) != 7 {
		t.Fatalf("entries: got %d, want 7", len(entries))
	}

	byCode := make(map[string]fields.CatalogEntry)
	for _, e := range entries {
		byCode[e.FieldCode] = e
	}

	content, ok := byCode["content"]
	if !ok {
		t.Fatal("content missing from catalog")
	}
	if content.Assignable {
		t.Error("content must not be assignable")
	}

	date, ok := byCode["document_date"]
	if !ok {
		t.Fatal("document_date missing from catalog")
	}
	if len(date.Operators) != 4 {
		t.Errorf("date operators: got %d, want 4", len(date.Operators))
	}
}
