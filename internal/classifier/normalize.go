package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/signals"
)

type rawResponse struct {
	Fields []rawField `json:"fields"`
}

type rawField struct {
	FieldCode  string          `json:"field_code"`
	Value      json.RawMessage `json:"value"`
	Confidence *float64        `json:"confidence"`
}

// Normalize converts the model's JSON output into canonical field-value
// signals. Unknown or unassignable fields, empty values, and values that
// fail their field type's parse are dropped; a missing confidence reads as
// zero and out-of-range confidence is clamped. Only a response that is not
// JSON at all is an error.
func Normalize(data []byte) ([]signals.FieldValue, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal classifier response: %w", err)
	}

	proposals := make([]signals.FieldValue, 0, len(raw.Fields))
	seen := make(map[string]bool)

	for _, f := range raw.Fields {
		if seen[f.FieldCode] || !fields.Assignable(f.FieldCode) {
			continue
		}

		value, ok := fields.Canonical(f.FieldCode, rawValueString(f.Value))
		if !ok {
			continue
		}

		var confidence float64
		if f.Confidence != nil {
			confidence = signals.Clamp(*f.Confidence)
		}

		seen[f.FieldCode] = true
		proposals = append(proposals, signals.FieldValue{
			FieldCode:  f.FieldCode,
			Value:      value,
			Confidence: confidence,
			Source:     signals.SourceAI,
		})
	}

	return proposals, nil
}

// rawValueString tolerates models that emit numbers or lists where a string
// was asked for.
func rawValueString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return fields.JoinList(list)
	}

	return ""
}
