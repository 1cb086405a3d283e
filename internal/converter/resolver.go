package converter

import (
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
)

// Resolver binds semantic fields to spreadsheet columns using the candidate
// phrases of a field rule table.
type Resolver struct {
	rules []config.FieldRule
}

// NewResolver creates a resolver over rules. The slice is copied.
func NewResolver(rules []config.FieldRule) *Resolver {
	copied := make([]config.FieldRule, len(rules))
	copy(copied, rules)
	return &Resolver{rules: copied}
}

// Resolve scans headers once per field and binds the field to the first
// header, in table order, whose trimmed lower-case text contains any of the
// field's candidate phrases. Fields without a match are left out of the
// mapping. One header may be bound to several fields.
func (r *Resolver) Resolve(headers []string) types.FieldMapping {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(header))
	}

	mapping := make(types.FieldMapping, len(r.rules))
	for _, rule := range r.rules {
		if header, ok := findColumn(headers, normalized, rule.Candidates); ok {
			mapping[rule.Key] = header
		}
	}

	return mapping
}

// findColumn returns the first header matching any candidate. Headers are
// the outer loop so an earlier column always wins over a later one, whatever
// the candidate priority.
func findColumn(headers, normalized, candidates []string) (string, bool) {
	for i, header := range normalized {
		for _, candidate := range candidates {
			if strings.Contains(header, strings.ToLower(candidate)) {
				return headers[i], true
			}
		}
	}
	return "", false
}
