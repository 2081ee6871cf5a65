package rules

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// Execution records the outcome of evaluating one rule against one document.
// Error carries the message of an evaluation failure; the rule is then
// treated as non-matching.
type Execution struct {
	RuleID         uuid.UUID `json:"rule_id"`
	RuleName       string    `json:"rule_name"`
	Matched        bool      `json:"matched"`
	AppliedActions []Action  `json:"applied_actions"`
	Error          string    `json:"error,omitempty"`
}

// RunResult is the outcome of running the full rule pipeline against one
// document's field values.
type RunResult struct {
	MatchedRuleIDs []uuid.UUID `json:"matched_rule_ids"`
	// Fields holds the final field assignments after all matching rules
	// applied, last-applied-wins.
	Fields     map[string]string `json:"fields"`
	Executions []Execution       `json:"executions"`
	// StoppedBy is set when a matching stop_on_match rule halted evaluation.
	StoppedBy *uuid.UUID `json:"stopped_by,omitempty"`
}

// SortRules orders rules by (priority ascending, id ascending). This ordering
// is load-bearing: identical inputs must always yield the same sequence of
// applied rules.
func SortRules(ruleSet []Rule) {
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority != ruleSet[j].Priority {
			return ruleSet[i].Priority < ruleSet[j].Priority
		}
		return bytes.Compare(ruleSet[i].ID[:], ruleSet[j].ID[:]) < 0
	})
}

// Run evaluates the rule set in (priority, id) order against one document's
// field values. Conditions within a rule combine with logical AND; a rule
// with zero conditions always matches. A matching rule applies all of its
// actions as one unit; later rules overwrite earlier assignments to the same
// field. A matching rule with stop_on_match halts further evaluation.
// Evaluation errors mark the rule non-matching and never abort the run.
// Run is a pure simulation: persistence of execution logs and field changes
// belongs to the caller.
func Run(ruleSet []Rule, values map[string]string) RunResult {
	SortRules(ruleSet)

	result := RunResult{
		MatchedRuleIDs: make([]uuid.UUID, 0),
		Fields:         make(map[string]string),
		Executions:     make([]Execution, 0, len(ruleSet)),
	}

	// rules see document values overlaid with earlier rule assignments,
	// so later rules can refine fields set by lower-priority rules
	working := make(map[string]string, len(values))
	for k, v := range values {
		working[k] = v
	}

	for _, rule := range ruleSet {
		execution := Execution{
			RuleID:   rule.ID,
			RuleName: rule.Name,
		}

		matched := true
		for _, cond := range rule.Conditions {
			ok, err := Evaluate(cond, working)
			if err != nil {
				execution.Error = err.Error()
				matched = false
				break
			}
			if !ok {
				matched = false
				break
			}
		}

		execution.Matched = matched
		if matched {
			execution.AppliedActions = rule.Actions
			result.MatchedRuleIDs = append(result.MatchedRuleIDs, rule.ID)

			for _, action := range rule.Actions {
				result.Fields[action.FieldCode] = action.Value
				working[action.FieldCode] = action.Value
			}
		}

		result.Executions = append(result.Executions, execution)

		if matched && rule.StopOnMatch {
			id := rule.ID
			result.StoppedBy = &id
			break
		}
	}

	return result
}
