package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/arbiterhq/arbiter/internal/fields"
)

// EvaluationError reports a condition that could not be evaluated: a
// malformed regex or an unparseable comparison value. Callers treat the
// owning rule as non-matching and continue; evaluation errors never abort
// a batch.
type EvaluationError struct {
	FieldCode string
	Operator  fields.Operator
	Reason    string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s %s: %s", e.FieldCode, e.Operator, e.Reason)
}

// Evaluate checks one condition against a document's field values. It is
// pure and side-effect free. A missing or empty field value evaluates to
// false without error.
func Evaluate(cond Condition, values map[string]string) (bool, error) {
	raw, ok := values[cond.FieldCode]
	if !ok || strings.TrimSpace(raw) == "" {
		return false, nil
	}

	t, ok := fields.TypeOf(cond.FieldCode)
	if !ok {
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "unknown field"}
	}

	switch t {
	case fields.TypeText:
		return evaluateText(cond, raw)
	case fields.TypeDate:
		return evaluateDate(cond, raw)
	case fields.TypeNumber:
		return evaluateNumber(cond, raw)
	case fields.TypeList:
		return evaluateList(cond, raw)
	default:
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "unknown field type"}
	}
}

func evaluateText(cond Condition, raw string) (bool, error) {
	doc := fields.NormalizeText(raw)
	val := fields.NormalizeText(cond.Value)

	switch cond.Operator {
	case fields.OpEquals:
		return doc == val, nil
	case fields.OpContains:
		return strings.Contains(doc, val), nil
	case fields.OpStartsWith:
		return strings.HasPrefix(doc, val), nil
	case fields.OpRegexMatch:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			return false, &EvaluationError{cond.FieldCode, cond.Operator, fmt.Sprintf("malformed regex: %v", err)}
		}
		return re.MatchString(raw), nil
	default:
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "operator not valid for text"}
	}
}

func evaluateDate(cond Condition, raw string) (bool, error) {
	doc, ok := fields.ParseDate(raw)
	if !ok {
		// malformed document value, not a rule authoring error
		return false, nil
	}

	val, ok := fields.ParseDate(cond.Value)
	if !ok {
		return false, &EvaluationError{cond.FieldCode, cond.Operator, fmt.Sprintf("unparseable date %q", cond.Value)}
	}

	switch cond.Operator {
	case fields.OpBefore:
		return doc.Before(val), nil
	case fields.OpAfter:
		return doc.After(val), nil
	case fields.OpOn:
		return fields.SameDay(doc, val), nil
	case fields.OpBetween:
		upper, ok := fields.ParseDate(cond.SecondValue)
		if !ok {
			return false, &EvaluationError{cond.FieldCode, cond.Operator, fmt.Sprintf("unparseable date %q", cond.SecondValue)}
		}
		return !doc.Before(val) && !doc.After(upper), nil
	default:
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "operator not valid for date"}
	}
}

func evaluateNumber(cond Condition, raw string) (bool, error) {
	doc, ok := fields.ParseNumber(raw)
	if !ok {
		return false, nil
	}

	val, ok := fields.ParseNumber(cond.Value)
	if !ok {
		return false, &EvaluationError{cond.FieldCode, cond.Operator, fmt.Sprintf("unparseable number %q", cond.Value)}
	}

	switch cond.Operator {
	case fields.OpEq:
		return doc == val, nil
	case fields.OpGt:
		return doc > val, nil
	case fields.OpLt:
		return doc < val, nil
	case fields.OpGte:
		return doc >= val, nil
	case fields.OpLte:
		return doc <= val, nil
	case fields.OpBetween:
		upper, ok := fields.ParseNumber(cond.SecondValue)
		if !ok {
			return false, &EvaluationError{cond.FieldCode, cond.Operator, fmt.Sprintf("unparseable number %q", cond.SecondValue)}
		}
		return doc >= val && doc <= upper, nil
	default:
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "operator not valid for number"}
	}
}

func evaluateList(cond Condition, raw string) (bool, error) {
	doc := fields.SplitList(raw)
	val := fields.SplitList(cond.Value)

	if len(val) == 0 {
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "empty comparison list"}
	}

	switch cond.Operator {
	case fields.OpIncludesAny:
		for _, item := range val {
			if slices.Contains(doc, item) {
				return true, nil
			}
		}
		return false, nil
	case fields.OpIncludesAll:
		for _, item := range val {
			if !slices.Contains(doc, item) {
				return false, nil
			}
		}
		return true, nil
	case fields.OpExcludesAll:
		for _, item := range val {
			if slices.Contains(doc, item) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, &EvaluationError{cond.FieldCode, cond.Operator, "operator not valid for list"}
	}
}
