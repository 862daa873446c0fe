package cand

import (
	"strings"

	"cand-go/internal/model"
)

// Criteria selects records. Each multi-select dimension matches any of its values
// and is ignored when empty; dimensions combine with AND.
type Criteria struct {
	Agencies     []string `json:"agencies,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	NameContains string   `json:"name_contains,omitempty"`
}

// FilterOptions lists the values a caller may pick for each multi-select dimension.
type FilterOptions struct {
	Agencies []string `json:"agencies"`
	Roles    []string `json:"roles"`
	Statuses []string `json:"statuses"`
}

// Apply returns the records matching c, in input order, paired with their original indices.
// An unmatched criterion yields an empty result, not an error.
func Apply(records []model.Record, c Criteria) []model.Row {
	agencies := toSet(c.Agencies)
	roles := toSet(c.Roles)
	statuses := toSet(c.Statuses)
	name := strings.ToLower(strings.TrimSpace(c.NameContains))

	out := []model.Row{}
	for i, r := range records {
		if !matchSet(agencies, r[model.ColAgency]) ||
			!matchSet(roles, r[model.ColRole]) ||
			!matchSet(statuses, r[model.ColStatus]) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(r[model.ColName]), name) {
			continue
		}
		out = append(out, model.Row{Index: i, Record: r})
	}
	return out
}

// Options derives the selectable values from the current records. Each dimension
// only offers values still reachable after the dimensions before it are applied:
// agencies come from all records, roles from the agency-filtered set, statuses from
// the agency- and role-filtered set. Values keep first-appearance order.
func Options(records []model.Record, c Criteria) FilterOptions {
	opts := FilterOptions{Agencies: distinct(records, model.ColAgency)}

	byAgency := rowsToRecords(Apply(records, Criteria{Agencies: c.Agencies}))
	opts.Roles = distinct(byAgency, model.ColRole)

	byRole := rowsToRecords(Apply(byAgency, Criteria{Roles: c.Roles}))
	opts.Statuses = distinct(byRole, model.ColStatus)

	return opts
}

func distinct(records []model.Record, column string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		v := r[column]
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func rowsToRecords(rows []model.Row) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Record
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func matchSet(set map[string]bool, v string) bool {
	return set == nil || set[v]
}
