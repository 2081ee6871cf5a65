package fields_test

import (
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/internal/fields"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"iso date", "2026-03-15", "2026-03-15", true},
		{"rfc3339", "2026-03-15T10:30:00Z", "2026-03-15", true},
		{"european", "15/03/2026", "2026-03-15", true},
		{"padded", "  2026-03-15  ", "2026-03-15", true},
		{"garbage", "next tuesday", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fields.ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.expected {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.expected)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"plain", "42.50", 42.50, true},
		{"integer", "1200", 1200, true},
		{"dollar sign", "$99.95", 99.95, true},
		{"euro sign", "€150.00", 150, true},
		{"comma decimal", "42,50", 42.50, true},
		{"thousands separator", "1,200.00", 1200, true},
		{"negative", "-15.25", -15.25, true},
		{"garbage", "about fifty", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fields.ParseNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple", "invoice,urgent", []string{"invoice", "urgent"}},
		{"normalized", " Invoice , URGENT ", []string{"invoice", "urgent"}},
		{"empty items dropped", "a,,b,", []string{"a", "b"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fields.SplitList(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("len: got %d, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("item %d: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestJoinListRoundTrip(t *testing.T) {
	in := " Invoice, URGENT ,paid "
	if got := fields.JoinList(fields.SplitList(in)); got != "invoice,urgent,paid" {
		t.Errorf("got %q, want %q", got, "invoice,urgent,paid")
	}
}

func TestNormalizeText(t *testing.T) {
	if got := fields.NormalizeText("  ACME Corp  "); got != "acme corp" {
		t.Errorf("got %q, want %q", got, "acme corp")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	if !fields.SameDay(a, b) {
		t.Error("same date with different times should match")
	}
	if fields.SameDay(a, c) {
		t.Error("different dates should not match")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		value string
		want  string
		ok    bool
	}{
		{"text trimmed", fields.CodeCorrespondent, "  ACME Corp  ", "ACME Corp", true},
		{"iso date", fields.CodeDocumentDate, "2026-03-15", "2026-03-15", true},
		{"european date rerendered", fields.CodeDocumentDate, "15/03/2026", "2026-03-15", true},
		{"currency stripped", fields.CodeAmount, "$1,200.00", "1200", true},
		{"decimal preserved", fields.CodeAmount, "1200.5", "1200.5", true},
		{"list normalized", fields.CodeTags, " Invoice , URGENT ", "invoice,urgent", true},
		{"unparseable date", fields.CodeDocumentDate, "next tuesday", "", false},
		{"unparseable number", fields.CodeAmount, "about fifty", "", false},
		{"empty value", fields.CodeTitle, "   ", "", false},
		{"list of empties", fields.CodeTags, " , , ", "", false},
		{"unknown field", "mood", "gloomy", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fields.Canonical(tt.code, tt.value)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
