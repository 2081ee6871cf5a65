package audit

import (
	"sort"
	"time"
)

// FieldDiff is one field whose value differs between two points in a
// document's history.
type FieldDiff struct {
	FieldCode string `json:"field_code"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// Comparison is the result of replaying a document's history at two
// points in time.
type Comparison struct {
	DocumentID string            `json:"document_id"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	Before     map[string]string `json:"before"`
	After      map[string]string `json:"after"`
	Changes    []FieldDiff       `json:"changes"`
}

// SnapshotAt replays entries recorded at or before the cutoff and returns
// the resulting field values. Entries may arrive in any order; replay is
// oldest first so later writes win.
func SnapshotAt(entries []Entry, at time.Time) map[string]string {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	snapshot := make(map[string]string)
	for _, entry := range ordered {
		if entry.CreatedAt.After(at) {
			break
		}
		snapshot[entry.FieldCode] = entry.NewValue
	}
	return snapshot
}

// Diff lists the fields whose values differ between two snapshots,
// sorted by field code for stable output.
func Diff(before, after map[string]string) []FieldDiff {
	codes := make(map[string]struct{}, len(before)+len(after))
	for code := range before {
		codes[code] = struct{}{}
	}
	for code := range after {
		codes[code] = struct{}{}
	}

	diffs := make([]FieldDiff, 0, len(codes))
	for code := range codes {
		if before[code] != after[code] {
			diffs = append(diffs, FieldDiff{
				FieldCode: code,
				From:      before[code],
				To:        after[code],
			})
		}
	}
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].FieldCode < diffs[j].FieldCode
	})
	return diffs
}
