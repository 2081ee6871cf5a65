// Package rules implements the user-authored classification rule catalog:
// rule storage, save-time validation, the condition evaluator, and the
// priority-ordered execution pipeline with its append-only execution log.
package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/fields"
)

// Condition is a single comparison between a document field and a configured
// value using a type-appropriate operator. SecondValue carries the upper
// bound for between operators and is empty otherwise.
type Condition struct {
	FieldCode   string          `json:"field_code"`
	Operator    fields.Operator `json:"operator"`
	Value       string          `json:"value"`
	SecondValue string          `json:"second_value,omitempty"`
}

// Action assigns a value to a document field when the owning rule matches.
type Action struct {
	FieldCode string `json:"field_code"`
	Value     string `json:"value"`
}

// Rule is a named, prioritized, optionally short-circuiting set of conditions
// and actions. Lower priority runs first; ties break by id ascending.
// Conditions combine with logical AND; a rule with zero conditions always
// matches (catch-all). Soft-deleted rules keep their row with DeletedAt set.
type Rule struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Priority    int         `json:"priority"`
	IsActive    bool        `json:"is_active"`
	StopOnMatch bool        `json:"stop_on_match"`
	Conditions  []Condition `json:"conditions"`
	Actions     []Action    `json:"actions"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

// SaveCommand carries the data needed to create or update a rule.
// Actor identifies the administrator making the change.
type SaveCommand struct {
	Name        string      `json:"name"`
	Priority    int         `json:"priority"`
	IsActive    bool        `json:"is_active"`
	StopOnMatch bool        `json:"stop_on_match"`
	Conditions  []Condition `json:"conditions"`
	Actions     []Action    `json:"actions"`
	Actor       string      `json:"actor"`
}

// Validate checks the command at save time: every condition operator must be
// a member of the operator set registered for its field's declared type, and
// every action must target an assignable field with a value. Violations are
// reported as ErrValidation and never retried.
func (c SaveCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if len(c.Actions) == 0 {
		return fmt.Errorf("%w: at least one action required", ErrValidation)
	}

	for i, cond := range c.Conditions {
		t, ok := fields.TypeOf(cond.FieldCode)
		if !ok {
			return fmt.Errorf("%w: condition %d references unknown field %q", ErrValidation, i, cond.FieldCode)
		}
		if !fields.ValidOperator(cond.FieldCode, cond.Operator) {
			return fmt.Errorf(
				"%w: operator %q is not registered for %s field %q",
				ErrValidation, cond.Operator, t, cond.FieldCode,
			)
		}
		if cond.Value == "" {
			return fmt.Errorf("%w: condition %d requires a comparison value", ErrValidation, i)
		}
		if cond.Operator == fields.OpBetween && cond.SecondValue == "" {
			return fmt.Errorf("%w: condition %d requires a second value for between", ErrValidation, i)
		}
	}

	for i, action := range c.Actions {
		if !fields.Assignable(action.FieldCode) {
			return fmt.Errorf("%w: action %d targets unassignable field %q", ErrValidation, i, action.FieldCode)
		}
		if action.Value == "" {
			return fmt.Errorf("%w: action %d requires a value", ErrValidation, i)
		}
	}

	return nil
}
