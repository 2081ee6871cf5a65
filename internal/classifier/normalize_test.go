package classifier_test

import (
	"testing"

	"github.com/arbiterhq/arbiter/internal/classifier"
	"github.com/arbiterhq/arbiter/internal/signals"
)

func byCode(proposals []signals.FieldValue) map[string]signals.FieldValue {
	m := make(map[string]signals.FieldValue, len(proposals))
	for _, p := range proposals {
		m[p.FieldCode] = p
	}
	return m
}

func TestNormalizeWellFormedResponse(t *testing.T) {
	data := []byte(`{"fields":[
		{"field_code":"correspondent","value":"ACME Corp","confidence":0.85},
		{"field_code":"document_date","value":"2026-03-15","confidence":0.7},
		{"field_code":"amount","value":"$1,200.00","confidence":0.6},
		{"field_code":"tags","value":" Invoice , URGENT ","confidence":0.5}
	]}`)

	proposals, err := classifier.Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := byCode(proposals)

	tests := []struct {
		code       string
		value      string
		confidence float64
	}{
		{"correspondent", "ACME Corp", 0.85},
		{"document_date", "2026-03-15", 0.7},
		{"amount", "1200", 0.6},
		{"tags", "invoice,urgent", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p, ok := got[tt.code]
			if !ok {
				t.Fatalf("%s missing", tt.code)
			}
			if p.Value != tt.value {
				t.Errorf("value: got %q, want %q", p.Value, tt.value)
			}
			if p.Confidence != tt.confidence {
				t.Errorf("confidence: got %v, want %v", p.Confidence, tt.confidence)
			}
			if p.Source != signals.SourceAI {
				t.Errorf("source: got %s, want %s", p.Source, signals.SourceAI)
			}
		})
	}
}

func TestNormalizeDropsInvalidItems(t *testing.T) {
	data := []byte(`{"fields":[
		{"field_code":"mood","value":"gloomy","confidence":0.9},
		{"field_code":"content","value":"rewrite","confidence":0.9},
		{"field_code":"document_date","value":"next tuesday","confidence":0.9},
		{"field_code":"amount","value":"about fifty","confidence":0.9},
		{"field_code":"title","value":"","confidence":0.9},
		{"field_code":"correspondent","value":"ACME","confidence":0.9}
	]}`)

	proposals, err := classifier.Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals: got %d, want 1", len(proposals))
	}
	if proposals[0].FieldCode != "correspondent" {
		t.Errorf("got %s, want correspondent", proposals[0].FieldCode)
	}
}

func TestNormalizeTolerantShapes(t *testing.T) {
	data := []byte(`{"fields":[
		{"field_code":"amount","value":1200.5,"confidence":0.8},
		{"field_code":"tags","value":["Invoice","Urgent"],"confidence":0.6},
		{"field_code":"title","value":"March Invoice"},
		{"field_code":"correspondent","value":"ACME","confidence":3.5},
		{"field_code":"document_type"}
	]}`)

	proposals, err := classifier.Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := byCode(proposals)

	if p := got["amount"]; p.Value != "1200.5" {
		t.Errorf("numeric value: got %q, want %q", p.Value, "1200.5")
	}
	if p := got["tags"]; p.Value != "invoice,urgent" {
		t.Errorf("list value: got %q, want %q", p.Value, "invoice,urgent")
	}
	if p := got["title"]; p.Confidence != 0 {
		t.Errorf("missing confidence must read zero, got %v", p.Confidence)
	}
	if p := got["correspondent"]; p.Confidence != 1 {
		t.Errorf("confidence must clamp to 1, got %v", p.Confidence)
	}
	if _, ok := got["document_type"]; ok {
		t.Error("valueless item must be dropped")
	}
}

func TestNormalizeDuplicateFieldKeepsFirst(t *testing.T) {
	data := []byte(`{"fields":[
		{"field_code":"title","value":"first","confidence":0.4},
		{"field_code":"title","value":"second","confidence":0.9}
	]}`)

	proposals, err := classifier.Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposals) != 1 || proposals[0].Value != "first" {
		t.Errorf("got %+v, want single entry with value %q", proposals, "first")
	}
}

func TestNormalizeRejectsNonJSON(t *testing.T) {
	if _, err := classifier.Normalize([]byte("I think this is an invoice")); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestNormalizeEmptyObject(t *testing.T) {
	proposals, err := classifier.Normalize([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposals) != 0 {
		t.Errorf("got %d proposals, want 0", len(proposals))
	}
}
