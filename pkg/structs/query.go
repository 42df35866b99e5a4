package structs

import (
	"strings"
)

const (
	// filterSeparator splits the field names of a JobQuery filter
	filterSeparator = ","

	// filterSelected is the value the orchestrator expects for each selected field
	filterSelected = 1
)

// JobQuery selects jobs by exact field values & picks which fields come back.
type JobQuery struct {
	// Match maps a job field to the literal value it must hold.
	Match map[string]interface{} `json:"match,omitempty"`

	// Filter is a comma separated list of fields to return (ie. "user,jobName").
	// Empty means the orchestrator's default selection.
	Filter string `json:"filter,omitempty"`
}

// Sanitize makes sure Match is never nil & tidies up the filter string.
func (q *JobQuery) Sanitize() {
	if q.Match == nil {
		q.Match = map[string]interface{}{}
	}
	q.Filter = strings.Join(q.fieldNames(), filterSeparator)
}

// Fields returns the filter in the form the orchestrator wants: field -> 1.
func (q *JobQuery) Fields() map[string]int {
	out := map[string]int{}
	for _, name := range q.fieldNames() {
		out[name] = filterSelected
	}
	return out
}

func (q *JobQuery) fieldNames() []string {
	names := []string{}
	for _, name := range strings.Split(q.Filter, filterSeparator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
