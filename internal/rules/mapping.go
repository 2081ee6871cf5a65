package rules

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "rules", "r").
	Project("id", "ID").
	Project("name", "Name").
	Project("priority", "Priority").
	Project("is_active", "IsActive").
	Project("stop_on_match", "StopOnMatch").
	Project("conditions", "Conditions").
	Project("actions", "Actions").
	Project("created_by", "CreatedBy").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Project("deleted_at", "DeletedAt")

var defaultSort = []query.SortField{
	{Field: "Priority"},
	{Field: "ID"},
}

var logProjection = query.
	NewProjectionMap("public", "rule_execution_logs", "l").
	Project("id", "ID").
	Project("rule_id", "RuleID").
	Project("document_id", "DocumentID").
	Project("matched", "Matched").
	Project("applied_actions", "AppliedActions").
	Project("created_at", "CreatedAt")

var logSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional filtering criteria for rule queries.
// Nil fields are ignored.
type Filters struct {
	IsActive  *bool   `json:"is_active,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`
}

// Apply adds filter conditions to a query builder. Soft-deleted rules are
// always excluded.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereNull("DeletedAt", true).
		WhereEquals("IsActive", f.IsActive).
		WhereEquals("CreatedBy", f.CreatedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("is_active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsActive = &b
		}
	}

	if v := values.Get("created_by"); v != "" {
		f.CreatedBy = &v
	}

	return f
}

func scanRule(s repository.Scanner) (Rule, error) {
	var r Rule
	var conditionsRaw, actionsRaw []byte

	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.Priority,
		&r.IsActive,
		&r.StopOnMatch,
		&conditionsRaw,
		&actionsRaw,
		&r.CreatedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.DeletedAt,
	)

	if err != nil {
		return r, err
	}

	if len(conditionsRaw) > 0 {
		if err := json.Unmarshal(conditionsRaw, &r.Conditions); err != nil {
			return r, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	if r.Conditions == nil {
		r.Conditions = []Condition{}
	}

	if len(actionsRaw) > 0 {
		if err := json.Unmarshal(actionsRaw, &r.Actions); err != nil {
			return r, fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	if r.Actions == nil {
		r.Actions = []Action{}
	}

	return r, nil
}

func scanExecutionLog(s repository.Scanner) (ExecutionLog, error) {
	var l ExecutionLog
	var actionsRaw []byte

	err := s.Scan(
		&l.ID,
		&l.RuleID,
		&l.DocumentID,
		&l.Matched,
		&actionsRaw,
		&l.CreatedAt,
	)

	if err != nil {
		return l, err
	}

	if len(actionsRaw) > 0 {
		if err := json.Unmarshal(actionsRaw, &l.AppliedActions); err != nil {
			return l, fmt.Errorf("unmarshal applied_actions: %w", err)
		}
	}
	if l.AppliedActions == nil {
		l.AppliedActions = []Action{}
	}

	return l, nil
}
