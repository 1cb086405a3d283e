// =============================================================================
// Excel to Tally XML Converter - Record Extraction
// =============================================================================
//
// Turns one spreadsheet row into a types.LedgerRecord:
//
//   1. Read the ledger name through the mapped column and trim it.
//   2. Skip the row when the name is empty.
//   3. Read every other field the same way; a blank cell or an unresolved
//      column takes the field's default from the rule table.
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
)

// Extractor reads ledger records from rows using a resolved mapping.
type Extractor struct {
	mapping  types.FieldMapping
	defaults map[types.FieldKey]string
}

// NewExtractor creates an extractor for one conversion.
func NewExtractor(mapping types.FieldMapping, rules []config.FieldRule) *Extractor {
	defaults := make(map[types.FieldKey]string, len(rules))
	for _, rule := range rules {
		defaults[rule.Key] = rule.Default
	}
	return &Extractor{mapping: mapping, defaults: defaults}
}

// Extract returns the record for row. The boolean is false when the row has
// no ledger name and must be skipped.
func (e *Extractor) Extract(row types.Row) (types.LedgerRecord, bool) {
	name := e.cell(row, types.FieldLedger)
	if name == "" {
		return types.LedgerRecord{}, false
	}

	return types.LedgerRecord{
		Name:           name,
		Group:          e.value(row, types.FieldGroup),
		OpeningBalance: e.value(row, types.FieldBalance),
		Address: [3]string{
			e.value(row, types.FieldAddr1),
			e.value(row, types.FieldAddr2),
			e.value(row, types.FieldAddr3),
		},
		State:     e.value(row, types.FieldState),
		Country:   e.value(row, types.FieldCountry),
		Mobile:    e.value(row, types.FieldMobile),
		Email:     e.value(row, types.FieldEmail),
		SourceRow: row.Number,
	}, true
}

// value returns the trimmed cell for key, or the key's default when blank.
func (e *Extractor) value(row types.Row, key types.FieldKey) string {
	if v := e.cell(row, key); v != "" {
		return v
	}
	return e.defaults[key]
}

// cell returns the trimmed cell for key, "" when the column is unresolved.
func (e *Extractor) cell(row types.Row, key types.FieldKey) string {
	header, ok := e.mapping.Column(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Get(header))
}
