package model

import "strings"

// MatchMode selects how a filter value is compared with a column.
type MatchMode int

const (
	// MatchContains is a case-insensitive substring match.
	MatchContains MatchMode = iota
	// MatchExact compares the stored text for equality.
	MatchExact
)

// String returns the name used in JSON requests.
func (m MatchMode) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "contains"
}

// ParseMatchMode maps "exact" to MatchExact and anything else to MatchContains.
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(s), "exact") {
		return MatchExact
	}
	return MatchContains
}

// Filter restricts one column. An empty Value imposes no constraint.
type Filter struct {
	Column string
	Value  string
	Mode   MatchMode
}

// Active reports whether the filter contributes a condition.
func (f Filter) Active() bool {
	return f.Value != ""
}

// FilterSet is an ordered list of filters, evaluated as a conjunction.
type FilterSet []Filter

// Active returns the filters that carry a value, in order.
func (fs FilterSet) Active() FilterSet {
	out := make(FilterSet, 0, len(fs))
	for _, f := range fs {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out
}

// FilterSetFromMap builds substring filters from a column to value map,
// ordered by columns. Columns missing from values are left unconstrained.
func FilterSetFromMap(columns []string, values map[string]string) FilterSet {
	fs := make(FilterSet, 0, len(columns))
	for _, c := range columns {
		fs = append(fs, Filter{Column: c, Value: values[c], Mode: MatchContains})
	}
	return fs
}
