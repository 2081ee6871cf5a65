package fields

import (
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted for date field values, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
}

// NormalizeText lowercases and trims a text value for comparison.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseDate parses a date field value, trying each accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a number or money field value. Currency symbols and
// thousands separators are stripped before parsing; a comma decimal
// separator is accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// SplitList splits a comma-separated list field value into normalized items.
// Empty items are dropped.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = NormalizeText(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// JoinList renders list items back into the canonical comma-separated form.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// Canonical parses a value against its field's declared type and re-renders
// it in canonical string form: ISO dates, plain decimal numbers, normalized
// comma-joined lists, trimmed text. Reports false for unknown fields and
// values that do not parse.
func Canonical(code, value string) (string, bool) {
	t, ok := TypeOf(code)
	if !ok {
		return "", false
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	switch t {
	case TypeDate:
		d, ok := ParseDate(value)
		if !ok {
			return "", false
		}
		return d.Format("2006-01-02"), true

	case TypeNumber:
		n, ok := ParseNumber(value)
		if !ok {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true

	case TypeList:
		items := SplitList(value)
		if len(items) == 0 {
			return "", false
		}
		return JoinList(items), true

	default:
		return value, true
	}
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
