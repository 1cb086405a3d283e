package converter

import (
	"testing"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(number int, cells map[string]string) types.Row {
	return types.Row{Number: number, Cells: cells}
}

func TestExtractDefaults(t *testing.T) {
	mapping := types.FieldMapping{types.FieldLedger: "Name"}
	extractor := NewExtractor(mapping, config.DefaultFieldRules())

	record, ok := extractor.Extract(row(2, map[string]string{"Name": "  Acme Traders "}))
	require.True(t, ok)

	assert.Equal(t, types.LedgerRecord{
		Name:           "Acme Traders",
		Group:          "Sundry Debtors",
		OpeningBalance: "0.00",
		State:          "Dhaka",
		Country:        "Bangladesh",
		SourceRow:      2,
	}, record)
}

func TestExtractValues(t *testing.T) {
	mapping := types.FieldMapping{
		types.FieldLedger:  "Ledger",
		types.FieldGroup:   "Group",
		types.FieldBalance: "Balance",
		types.FieldAddr1:   "Addr1",
		types.FieldAddr2:   "Addr2",
		types.FieldAddr3:   "City",
		types.FieldState:   "State",
		types.FieldCountry: "Country",
		types.FieldMobile:  "Mobile",
		types.FieldEmail:   "Email",
	}
	extractor := NewExtractor(mapping, config.DefaultFieldRules())

	record, ok := extractor.Extract(row(5, map[string]string{
		"Ledger":  "Beta Ltd",
		"Group":   " Sundry Creditors ",
		"Balance": "-250.5",
		"Addr1":   "House 1",
		"Addr2":   "   ",
		"City":    "Chattogram",
		"State":   "",
		"Country": "India",
		"Mobile":  "01700000000",
		"Email":   "a@b.test",
	}))
	require.True(t, ok)

	assert.Equal(t, "Sundry Creditors", record.Group)
	assert.Equal(t, "-250.5", record.OpeningBalance, "balance is passed through verbatim")
	assert.Equal(t, [3]string{"House 1", "", "Chattogram"}, record.Address)
	assert.Equal(t, "Dhaka", record.State, "blank cell takes the default")
	assert.Equal(t, "India", record.Country)
	assert.Equal(t, "01700000000", record.Mobile)
	assert.Equal(t, "a@b.test", record.Email)
	assert.Equal(t, 5, record.SourceRow)
}

func TestExtractSkipsUnnamedRows(t *testing.T) {
	tests := []struct {
		name    string
		mapping types.FieldMapping
		cells   map[string]string
	}{
		{
			name:    "blank name",
			mapping: types.FieldMapping{types.FieldLedger: "Ledger"},
			cells:   map[string]string{"Ledger": "   ", "Group": "X"},
		},
		{
			name:    "unresolved ledger column",
			mapping: types.FieldMapping{types.FieldGroup: "Group"},
			cells:   map[string]string{"Group": "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewExtractor(tt.mapping, config.DefaultFieldRules()).Extract(row(3, tt.cells))
			assert.False(t, ok)
		})
	}
}

func TestExtractCustomDefaults(t *testing.T) {
	rules := config.DefaultFieldRules()
	for i := range rules {
		if rules[i].Key == types.FieldCountry {
			rules[i].Default = "India"
		}
	}

	record, ok := NewExtractor(types.FieldMapping{types.FieldLedger: "L"}, rules).
		Extract(row(2, map[string]string{"L": "Acme"}))
	require.True(t, ok)

	assert.Equal(t, "India", record.Country)
}
