// =============================================================================
// Excel to Tally XML Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - config      (field rules are keyed by FieldKey)
//   - xlsxparser  (produces Table)
//   - csvparser   (produces Table)
//   - converter   (resolves FieldMapping, extracts LedgerRecord)
//   - validation  (inspects Table and FieldMapping)
//   - xmlwriter   (consumes LedgerRecord)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// FIELD KEYS
// =============================================================================

// FieldKey identifies one semantic ledger field. The set is closed.
type FieldKey string

const (
	FieldLedger  FieldKey = "LEDGER"
	FieldGroup   FieldKey = "GROUP"
	FieldBalance FieldKey = "BALANCE"
	FieldAddr1   FieldKey = "ADDR1"
	FieldAddr2   FieldKey = "ADDR2"
	FieldAddr3   FieldKey = "ADDR3"
	FieldState   FieldKey = "STATE"
	FieldCountry FieldKey = "COUNTRY"
	FieldMobile  FieldKey = "MOBILE"
	FieldEmail   FieldKey = "EMAIL"
)

// AllFields lists every field key in canonical order.
var AllFields = []FieldKey{
	FieldLedger,
	FieldGroup,
	FieldBalance,
	FieldAddr1,
	FieldAddr2,
	FieldAddr3,
	FieldState,
	FieldCountry,
	FieldMobile,
	FieldEmail,
}

// ParseFieldKey converts a case-insensitive name into a FieldKey.
func ParseFieldKey(name string) (FieldKey, error) {
	key := FieldKey(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range AllFields {
		if key == known {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown field key %q", name)
}

// =============================================================================
// FIELD MAPPING
// =============================================================================

// FieldMapping binds field keys to actual column headers.
// A key that is absent from the map is unresolved.
type FieldMapping map[FieldKey]string

// Column returns the header bound to key, if any.
func (m FieldMapping) Column(key FieldKey) (string, bool) {
	header, ok := m[key]
	return header, ok
}

// FieldsFor returns the keys bound to header, in canonical order.
func (m FieldMapping) FieldsFor(header string) []FieldKey {
	var keys []FieldKey
	for _, key := range AllFields {
		if bound, ok := m[key]; ok && bound == header {
			keys = append(keys, key)
		}
	}
	return keys
}

// =============================================================================
// LEDGER RECORD
// =============================================================================

// LedgerRecord holds the values of one accepted source row after defaults
// have been applied.
type LedgerRecord struct {
	// Name is the ledger name. Never empty for an accepted row.
	Name string

	// Group is the parent group (PARENT in the XML).
	Group string

	// OpeningBalance is passed through verbatim.
	OpeningBalance string

	// Address holds ADDR1, ADDR2 and ADDR3 in that order. Empty lines are
	// kept here and dropped by the writer.
	Address [3]string

	State   string
	Country string
	Mobile  string
	Email   string

	// SourceRow is the 1-based spreadsheet row number the record came from.
	SourceRow int
}

// AddressLines returns the non-empty address lines in order.
func (r LedgerRecord) AddressLines() []string {
	var lines []string
	for _, line := range r.Address {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
