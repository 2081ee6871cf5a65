// Package signals defines the field-value currency exchanged between the rule
// engine, the external classifier, extraction templates, and learned-history
// lookups, and the arbitration policy that merges them into one authoritative
// value per field.
package signals

// Source identifies where a proposed field value came from.
type Source string

const (
	SourceRule       Source = "rule"
	SourceAI         Source = "ai"
	SourceExtraction Source = "extraction"
	SourceHistory    Source = "history"
	SourceManual     Source = "manual"
	SourceRevert     Source = "revert"
)

// precedence ranks sources for confidence tie-breaking: manual edits always
// beat automated reclassification, learned history beats fresh automation,
// deterministic rules beat template extraction, extraction beats the AI
// classifier. Revert is an audit-only source and never competes in a merge.
var precedence = map[Source]int{
	SourceManual:     5,
	SourceHistory:    4,
	SourceRule:       3,
	SourceExtraction: 2,
	SourceAI:         1,
}

// Rank returns the tie-break precedence of a source; higher wins.
func (s Source) Rank() int {
	return precedence[s]
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceRevert || precedence[s] > 0
}

// FieldValue is a proposed value for one document field with its provenance
// and a confidence score in [0,1].
type FieldValue struct {
	FieldCode  string  `json:"field_code"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Merge arbitrates between heterogeneous signal sets and returns one
// FieldValue per field code. For each field the highest-confidence value
// wins; confidence ties fall to source precedence; full ties keep the
// earliest set, so callers pass sets in a stable order.
func Merge(sets ...[]FieldValue) map[string]FieldValue {
	merged := make(map[string]FieldValue)

	for _, set := range sets {
		for _, fv := range set {
			current, ok := merged[fv.FieldCode]
			if !ok || wins(fv, current) {
				merged[fv.FieldCode] = fv
			}
		}
	}

	return merged
}

// Combine merges an existing confidence with a freshly computed one for the
// same field. The result never decreases: repeated reprocessing cannot
// silently downgrade a previously high-confidence value.
func Combine(existing, fresh float64) float64 {
	return max(existing, fresh)
}

// Clamp bounds a confidence score to [0,1].
func Clamp(confidence float64) float64 {
	return min(max(confidence, 0), 1)
}

func wins(candidate, current FieldValue) bool {
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	return candidate.Source.Rank() > current.Source.Rank()
}
