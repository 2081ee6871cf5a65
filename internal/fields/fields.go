// Package fields defines the semantic document field catalog: each field code
// a rule condition or action may reference, its declared type, and the
// operator set registered for that type.
package fields

// Type is the declared type of a document field. It determines which
// condition operators are valid for the field.
type Type string

const (
	TypeText   Type = "text"
	TypeDate   Type = "date"
	TypeNumber Type = "number"
	TypeList   Type = "list"
)

// Operator identifies a condition comparison for a specific field type.
type Operator string

// Text operators.
const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpRegexMatch Operator = "regex_match"
)

// Date operators.
const (
	OpBefore Operator = "before"
	OpAfter  Operator = "after"
	OpOn     Operator = "on"
)

// Number operators.
const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpLt  Operator = "lt"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

// OpBetween is shared by date (inclusive date range) and number fields.
const OpBetween Operator = "between"

// List operators.
const (
	OpIncludesAny Operator = "includes_any"
	OpIncludesAll Operator = "includes_all"
	OpExcludesAll Operator = "excludes_all"
)

// Document field codes. Content carries the extracted text blob and may only
// appear in conditions, never as an action target.
const (
	CodeTitle          = "title"
	CodeContent        = "content"
	CodeCorrespondent  = "correspondent"
	CodeDocumentType   = "document_type"
	CodeDocumentDate   = "document_date"
	CodeAmount         = "amount"
	CodeTags           = "tags"
)

var catalog = map[string]Type{
	CodeTitle:         TypeText,
	CodeContent:       TypeText,
	CodeCorrespondent: TypeText,
	CodeDocumentType:  TypeText,
	CodeDocumentDate:  TypeDate,
	CodeAmount:        TypeNumber,
	CodeTags:          TypeList,
}

var operators = map[Type][]Operator{
	TypeText:   {OpEquals, OpContains, OpStartsWith, OpRegexMatch},
	TypeDate:   {OpBefore, OpAfter, OpBetween, OpOn},
	TypeNumber: {OpEq, OpGt, OpLt, OpGte, OpLte, OpBetween},
	TypeList:   {OpIncludesAny, OpIncludesAll, OpExcludesAll},
}

// TypeOf returns the declared type for a field code.
func TypeOf(code string) (Type, bool) {
	t, ok := catalog[code]
	return t, ok
}

// Operators returns the operator set registered for a field type.
func Operators(t Type) []Operator {
	return operators[t]
}

// ValidOperator reports whether op is a member of the operator set registered
// for the field code's declared type.
func ValidOperator(code string, op Operator) bool {
	t, ok := catalog[code]
	if !ok {
		return false
	}
	for _, candidate := range operators[t] {
		if candidate == op {
			return true
		}
	}
	return false
}

// Assignable reports whether a rule action may target the field code.
func Assignable(code string) bool {
	if code == CodeContent {
		return false
	}
	_, ok := catalog[code]
	return ok
}

// CatalogEntry describes one field for the operator catalog endpoint.
type CatalogEntry struct {
	FieldCode  string     `json:"field_code"`
	Type       Type       `json:"type"`
	Operators  []Operator `json:"operators"`
	Assignable bool       `json:"assignable"`
}

// Catalog returns the full field/operator catalog in stable order.
func Catalog() []CatalogEntry {
	codes := []string{
		CodeTitle, CodeContent, CodeCorrespondent, CodeDocumentType,
		CodeDocumentDate, CodeAmount, CodeTags,
	}

	entries := make([]CatalogEntry, 0, len(codes))
	for _, code := range codes {
		t := catalog[code]
		entries = append(entries, CatalogEntry{
			FieldCode:  code,
			Type:       t,
			Operators:  operators[t],
			Assignable: Assignable(code),
		})
	}
	return entries
}
