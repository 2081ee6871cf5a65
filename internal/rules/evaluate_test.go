package rules_test

import (
	"errors"
	"testing"

	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/rules"
)

var sampleValues = map[string]string{
	"title":         "March Invoice",
	"content":       "Invoice #1042 from ACME Corp, total $1,200.00 due 2026-04-01",
	"correspondent": "ACME Corp",
	"document_type": "invoice",
	"document_date": "2026-03-15",
	"amount":        "1200.00",
	"tags":          "invoice,urgent",
}

func TestEvaluateText(t *testing.T) {
	tests := []struct {
		name     string
		cond     rules.Condition
		expected bool
	}{
		{"equals case-insensitive", rules.Condition{FieldCode: "correspondent", Operator: fields.OpEquals, Value: "acme corp"}, true},
		{"equals mismatch", rules.Condition{FieldCode: "correspondent", Operator: fields.OpEquals, Value: "globex"}, false},
		{"contains", rules.Condition{FieldCode: "content", Operator: fields.OpContains, Value: "acme"}, true},
		{"contains mismatch", rules.Condition{FieldCode: "content", Operator: fields.OpContains, Value: "receipt"}, false},
		{"starts_with", rules.Condition{FieldCode: "title", Operator: fields.OpStartsWith, Value: "march"}, true},
		{"starts_with mismatch", rules.Condition{FieldCode: "title", Operator: fields.OpStartsWith, Value: "invoice"}, false},
		{"regex_match", rules.Condition{FieldCode: "content", Operator: fields.OpRegexMatch, Value: `invoice #\d+`}, true},
		{"regex case-insensitive", rules.Condition{FieldCode: "correspondent", Operator: fields.OpRegexMatch, Value: "^acme"}, true},
		{"regex mismatch", rules.Condition{FieldCode: "title", Operator: fields.OpRegexMatch, Value: `^\d+$`}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Evaluate(tt.cond, sampleValues)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateDate(t *testing.T) {
	tests := []struct {
		name     string
		cond     rules.Condition
		expected bool
	}{
		{"before", rules.Condition{FieldCode: "document_date", Operator: fields.OpBefore, Value: "2026-04-01"}, true},
		{"before mismatch", rules.Condition{FieldCode: "document_date", Operator: fields.OpBefore, Value: "2026-03-01"}, false},
		{"after", rules.Condition{FieldCode: "document_date", Operator: fields.OpAfter, Value: "2026-01-01"}, true},
		{"on", rules.Condition{FieldCode: "document_date", Operator: fields.OpOn, Value: "2026-03-15"}, true},
		{"on european layout", rules.Condition{FieldCode: "document_date", Operator: fields.OpOn, Value: "15/03/2026"}, true},
		{"between inclusive", rules.Condition{FieldCode: "document_date", Operator: fields.OpBetween, Value: "2026-03-15", SecondValue: "2026-03-31"}, true},
		{"between outside", rules.Condition{FieldCode: "document_date", Operator: fields.OpBetween, Value: "2026-04-01", SecondValue: "2026-04-30"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Evaluate(tt.cond, sampleValues)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateNumber(t *testing.T) {
	tests := []struct {
		name     string
		cond     rules.Condition
		expected bool
	}{
		{"eq", rules.Condition{FieldCode: "amount", Operator: fields.OpEq, Value: "1200"}, true},
		{"gt", rules.Condition{FieldCode: "amount", Operator: fields.OpGt, Value: "1000"}, true},
		{"gt mismatch", rules.Condition{FieldCode: "amount", Operator: fields.OpGt, Value: "1200"}, false},
		{"lt", rules.Condition{FieldCode: "amount", Operator: fields.OpLt, Value: "2000"}, true},
		{"gte boundary", rules.Condition{FieldCode: "amount", Operator: fields.OpGte, Value: "1200"}, true},
		{"lte boundary", rules.Condition{FieldCode: "amount", Operator: fields.OpLte, Value: "1200"}, true},
		{"between", rules.Condition{FieldCode: "amount", Operator: fields.OpBetween, Value: "1000", SecondValue: "1500"}, true},
		{"currency symbol in rule value", rules.Condition{FieldCode: "amount", Operator: fields.OpEq, Value: "$1,200.00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Evaluate(tt.cond, sampleValues)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateList(t *testing.T) {
	tests := []struct {
		name     string
		cond     rules.Condition
		expected bool
	}{
		{"includes_any", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAny, Value: "urgent,archived"}, true},
		{"includes_any mismatch", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAny, Value: "archived,paid"}, false},
		{"includes_all", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAll, Value: "invoice,urgent"}, true},
		{"includes_all partial", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAll, Value: "invoice,paid"}, false},
		{"excludes_all", rules.Condition{FieldCode: "tags", Operator: fields.OpExcludesAll, Value: "archived,paid"}, true},
		{"excludes_all overlap", rules.Condition{FieldCode: "tags", Operator: fields.OpExcludesAll, Value: "urgent"}, false},
		{"normalized comparison", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAny, Value: " URGENT "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Evaluate(tt.cond, sampleValues)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateMissingFieldIsFalse(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"absent key", map[string]string{}},
		{"empty value", map[string]string{"correspondent": ""}},
		{"whitespace value", map[string]string{"correspondent": "   "}},
	}

	cond := rules.Condition{FieldCode: "correspondent", Operator: fields.OpEquals, Value: "acme"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Evaluate(cond, tt.values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got {
				t.Error("missing field must evaluate false")
			}
		})
	}
}

func TestEvaluateUnparseableDocumentValueIsFalse(t *testing.T) {
	values := map[string]string{
		"document_date": "next tuesday",
		"amount":        "about fifty",
	}

	tests := []rules.Condition{
		{FieldCode: "document_date", Operator: fields.OpBefore, Value: "2026-01-01"},
		{FieldCode: "amount", Operator: fields.OpGt, Value: "10"},
	}

	for _, cond := range tests {
		t.Run(cond.FieldCode, func(t *testing.T) {
			got, err := rules.Evaluate(cond, values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got {
				t.Error("unparseable document value must evaluate false")
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		cond rules.Condition
	}{
		{"malformed regex", rules.Condition{FieldCode: "title", Operator: fields.OpRegexMatch, Value: "("}},
		{"unparseable rule date", rules.Condition{FieldCode: "document_date", Operator: fields.OpBefore, Value: "soon"}},
		{"unparseable between bound", rules.Condition{FieldCode: "amount", Operator: fields.OpBetween, Value: "10", SecondValue: "lots"}},
		{"empty comparison list", rules.Condition{FieldCode: "tags", Operator: fields.OpIncludesAny, Value: " , "}},
		{"unknown field", rules.Condition{FieldCode: "mood", Operator: fields.OpEquals, Value: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := sampleValues
			if tt.cond.FieldCode == "mood" {
				values = map[string]string{"mood": "gloomy"}
			}

			got, err := rules.Evaluate(tt.cond, values)
			if err == nil {
				t.Fatal("expected evaluation error")
			}
			var evalErr *rules.EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %T", err)
			}
			if got {
				t.Error("errored condition must report non-match")
			}
		})
	}
}
