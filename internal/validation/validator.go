// =============================================================================
// Excel to Tally XML Converter - Mapping Checks
// =============================================================================
//
// This module inspects a resolved column mapping against its table and
// reports problems an operator should know about before importing into Tally.
// None of them stop a conversion; they are logged and shown by `inspect`.
//
// WARNING CODES:
//   - ledger_unresolved : no column looks like a ledger name, every row is skipped
//   - ambiguous_column  : one column feeds more than one field
//   - duplicate_ledger  : a ledger name appears on more than one row
//   - empty_document    : no row has a ledger name
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
)

// Warning codes.
const (
	CodeLedgerUnresolved = "ledger_unresolved"
	CodeAmbiguousColumn  = "ambiguous_column"
	CodeDuplicateLedger  = "duplicate_ledger"
	CodeEmptyDocument    = "empty_document"
)

// =============================================================================
// WARNING STRUCTURE
// =============================================================================

// Warning is a non-fatal finding about a table and its mapping.
type Warning struct {
	// Code identifies the kind of warning.
	Code string

	// Column is the header involved, if any.
	Column string

	// Fields are the field keys involved, if any.
	Fields []types.FieldKey

	// Rows are the 1-based sheet rows involved, if any.
	Rows []int

	// Message is a human-readable description.
	Message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// =============================================================================
// CHECKS
// =============================================================================

// Check runs every check and returns the warnings in a stable order.
func Check(table *types.Table, mapping types.FieldMapping) []*Warning {
	var warnings []*Warning

	ledgerColumn, resolved := mapping.Column(types.FieldLedger)
	if !resolved {
		warnings = append(warnings, &Warning{
			Code:    CodeLedgerUnresolved,
			Fields:  []types.FieldKey{types.FieldLedger},
			Message: "no column matches the ledger name; every row will be skipped",
		})
	}

	warnings = append(warnings, checkAmbiguousColumns(table.Headers, mapping)...)

	if resolved {
		duplicates, named := checkLedgerNames(table, ledgerColumn)
		warnings = append(warnings, duplicates...)

		if named == 0 && len(table.Rows) > 0 {
			warnings = append(warnings, &Warning{
				Code:    CodeEmptyDocument,
				Column:  ledgerColumn,
				Message: fmt.Sprintf("column %q is blank on every row; the document will contain no ledgers", ledgerColumn),
			})
		}
	}

	return warnings
}

// checkAmbiguousColumns reports headers bound to more than one field.
func checkAmbiguousColumns(headers []string, mapping types.FieldMapping) []*Warning {
	var warnings []*Warning

	for _, header := range headers {
		fields := mapping.FieldsFor(header)
		if len(fields) < 2 {
			continue
		}

		names := make([]string, len(fields))
		for i, field := range fields {
			names[i] = string(field)
		}

		warnings = append(warnings, &Warning{
			Code:    CodeAmbiguousColumn,
			Column:  header,
			Fields:  fields,
			Message: fmt.Sprintf("column %q is used for %s; its value is repeated in each", header, strings.Join(names, ", ")),
		})
	}

	return warnings
}

// checkLedgerNames reports repeated ledger names and counts named rows.
func checkLedgerNames(table *types.Table, column string) ([]*Warning, int) {
	rowsByName := make(map[string][]int)
	var order []string
	named := 0

	for _, row := range table.Rows {
		name := strings.TrimSpace(row.Get(column))
		if name == "" {
			continue
		}
		named++

		if _, seen := rowsByName[name]; !seen {
			order = append(order, name)
		}
		rowsByName[name] = append(rowsByName[name], row.Number)
	}

	var warnings []*Warning
	for _, name := range order {
		rows := rowsByName[name]
		if len(rows) < 2 {
			continue
		}
		warnings = append(warnings, &Warning{
			Code:    CodeDuplicateLedger,
			Column:  column,
			Rows:    rows,
			Message: fmt.Sprintf("ledger %q appears on rows %s", name, joinInts(rows)),
		})
	}

	return warnings, named
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []*Warning) string {
	if len(warnings) == 0 {
		return "No warnings."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d warning(s):\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(&b, "  - %s\n", w)
	}
	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
