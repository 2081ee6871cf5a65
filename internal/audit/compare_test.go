package audit_test

import (
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/signals"
)

func entryAt(field, newValue string, at time.Time) audit.Entry {
	return audit.Entry{
		FieldCode: field,
		NewValue:  newValue,
		Source:    signals.SourceManual,
		CreatedAt: at,
	}
}

func TestSnapshotAtReplaysOldestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// deliberately out of order
	entries := []audit.Entry{
		entryAt("document_type", "receipt", base.Add(2*time.Hour)),
		entryAt("document_type", "invoice", base),
		entryAt("correspondent", "ACME Corp", base.Add(time.Hour)),
	}

	tests := []struct {
		name     string
		at       time.Time
		expected map[string]string
	}{
		{"before any entry", base.Add(-time.Minute), map[string]string{}},
		{"after first", base, map[string]string{"document_type": "invoice"}},
		{"mid history", base.Add(90 * time.Minute), map[string]string{
			"document_type": "invoice",
			"correspondent": "ACME Corp",
		}},
		{"latest wins", base.Add(3 * time.Hour), map[string]string{
			"document_type": "receipt",
			"correspondent": "ACME Corp",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := audit.SnapshotAt(entries, tt.at)
			if len(got) != len(tt.expected) {
				t.Fatalf("fields: got %d, want %d", len(got), len(tt.expected))
			}
			for code, want := range tt.expected {
				if got[code] != want {
					t.Errorf("%s: got %q, want %q", code, got[code], want)
				}
			}
		})
	}
}

func TestDiff(t *testing.T) {
	before := map[string]string{
		"document_type": "invoice",
		"correspondent": "ACME Corp",
		"tags":          "billing",
	}
	after := map[string]string{
		"document_type": "receipt",
		"correspondent": "ACME Corp",
		"amount":        "42.50",
	}

	diffs := audit.Diff(before, after)

	expected := []audit.FieldDiff{
		{FieldCode: "amount", From: "", To: "42.50"},
		{FieldCode: "document_type", From: "invoice", To: "receipt"},
		{FieldCode: "tags", From: "billing", To: ""},
	}

	if len(diffs) != len(expected) {
		t.Fatalf("diffs: got %d, want %d", len(diffs), len(expected))
	}
	for i, want := range expected {
		if diffs[i] != want {
			t.Errorf("diff %d: got %+v, want %+v", i, diffs[i], want)
		}
	}
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	snapshot := map[string]string{"document_type": "invoice"}
	if diffs := audit.Diff(snapshot, snapshot); len(diffs) != 0 {
		t.Errorf("got %d diffs, want 0", len(diffs))
	}
}
