package converter

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const acmeXML = `<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE>
    <HEADER>
        <TALLYREQUEST>Import Data</TALLYREQUEST>
    </HEADER>
    <BODY>
        <IMPORTDATA>
            <REQUESTDESC>
                <REPORTNAME>All Masters</REPORTNAME>
            </REQUESTDESC>
            <REQUESTDATA>
                <TALLYMESSAGE xmlns:UDF="TallyUDF">
                    <LEDGER NAME="Acme Traders" RESERVEDNAME="">
                        <ADDRESS.LIST TYPE="String"/>
                        <MAILINGNAME.LIST TYPE="String">
                            <MAILINGNAME>Acme Traders</MAILINGNAME>
                        </MAILINGNAME.LIST>
                        <STATENAME>Dhaka</STATENAME>
                        <COUNTRYNAME>Bangladesh</COUNTRYNAME>
                        <PARENT>Sundry Creditors</PARENT>
                        <OPENINGBALANCE>1500.00</OPENINGBALANCE>
                        <LANGUAGENAME.LIST>
                            <NAME.LIST TYPE="String">
                                <NAME>Acme Traders</NAME>
                            </NAME.LIST>
                            <LANGUAGEID>1033</LANGUAGEID>
                        </LANGUAGENAME.LIST>
                    </LEDGER>
                </TALLYMESSAGE>
            </REQUESTDATA>
        </IMPORTDATA>
    </BODY>
</ENVELOPE>
`

// writeWorkbook saves a single-sheet workbook holding rows.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "ledgers.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func acmeWorkbook(t *testing.T) string {
	return writeWorkbook(t, [][]any{
		{"*Ledger Name", "Group", "Opening Balance"},
		{"Acme Traders", "Sundry Creditors", "1500.00"},
	})
}

// envelope is just enough of the document to count and read ledgers.
type envelope struct {
	Messages []struct {
		Ledger struct {
			Name      string   `xml:"NAME,attr"`
			Addresses []string `xml:"ADDRESS.LIST>ADDRESS"`
			Parent    string   `xml:"PARENT"`
			Balance   string   `xml:"OPENINGBALANCE"`
			Email     *string  `xml:"EMAIL"`
			Mobile    *string  `xml:"MOBILENUMBER"`
		} `xml:"LEDGER"`
	} `xml:"BODY>IMPORTDATA>REQUESTDATA>TALLYMESSAGE"`
}

func parseEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, xml.Unmarshal(data, &env))
	return env
}

func TestConvertFileAcme(t *testing.T) {
	input := acmeWorkbook(t)
	output := filepath.Join(t.TempDir(), "out", "acme.xml")

	result, err := New(nil, nil).ConvertFile(input, "", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, acmeXML, string(data))

	assert.Equal(t, input, result.InputFile)
	assert.Equal(t, output, result.OutputFile)
	assert.Equal(t, "Sheet1", result.Sheet)
	assert.Equal(t, "*Ledger Name", result.Mapping[types.FieldLedger])
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, result.Stats.RowsRead)
	assert.Equal(t, 1, result.Stats.LedgersWritten)
	assert.Zero(t, result.Stats.RowsSkipped)
}

func TestConvertPackageFunction(t *testing.T) {
	output := filepath.Join(t.TempDir(), "acme.xml")

	require.NoError(t, Convert(acmeWorkbook(t), "", output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, acmeXML, string(data))
}

func TestConvertFileSkipsUnnamedRows(t *testing.T) {
	input := writeWorkbook(t, [][]any{
		{"Ledger Name", "Group", "Email", "Mobile"},
		{"Acme", "", "ops@acme.test", ""},
		{"", "Sundry Creditors", "", ""},
		{"  ", "X", "", ""},
		{"Beta & Sons", "Sundry Creditors", "", "01700000000"},
		{"Gamma", "", "", ""},
	})
	output := filepath.Join(t.TempDir(), "out.xml")

	result, err := New(nil, nil).ConvertFile(input, "", output)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Stats.RowsRead)
	assert.Equal(t, 3, result.Stats.LedgersWritten)
	assert.Equal(t, 2, result.Stats.RowsSkipped)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<LEDGER NAME="Beta &amp; Sons" RESERVEDNAME="">`)

	env := parseEnvelope(t, data)
	require.Len(t, env.Messages, 3)

	var names []string
	for _, m := range env.Messages {
		names = append(names, m.Ledger.Name)
	}
	assert.Equal(t, []string{"Acme", "Beta & Sons", "Gamma"}, names)

	acme := env.Messages[0].Ledger
	assert.Equal(t, "Sundry Debtors", acme.Parent)
	require.NotNil(t, acme.Email)
	assert.Equal(t, "ops@acme.test", *acme.Email)
	assert.Nil(t, acme.Mobile)

	beta := env.Messages[1].Ledger
	assert.Nil(t, beta.Email)
	require.NotNil(t, beta.Mobile)
	assert.Equal(t, "01700000000", *beta.Mobile)
}

func TestConvertFileIsDeterministic(t *testing.T) {
	input := writeWorkbook(t, [][]any{
		{"Ledger", "Address Line 1", "Address Line 2", "City", "Opening Balance"},
		{"Acme", "House 1", "", "Dhaka", "100"},
		{"Beta", "", "Road 2", "", ""},
	})
	dir := t.TempDir()
	conv := New(nil, nil)

	_, err := conv.ConvertFile(input, "", filepath.Join(dir, "a.xml"))
	require.NoError(t, err)
	_, err = conv.ConvertFile(input, "", filepath.Join(dir, "b.xml"))
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dir, "a.xml"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.xml"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	env := parseEnvelope(t, a)
	require.Len(t, env.Messages, 2)
	assert.Equal(t, []string{"House 1", "Dhaka"}, env.Messages[0].Ledger.Addresses)
	assert.Equal(t, []string{"Road 2"}, env.Messages[1].Ledger.Addresses)
	assert.Equal(t, "0.00", env.Messages[1].Ledger.Balance)
}

func TestConvertFileCSV(t *testing.T) {
	input := filepath.Join(t.TempDir(), "ledgers.csv")
	require.NoError(t, os.WriteFile(input, []byte("*Ledger Name,Group,Opening Balance\nAcme Traders,Sundry Creditors,1500.00\n"), 0o644))
	output := filepath.Join(t.TempDir(), "acme.xml")

	result, err := New(nil, nil).ConvertFile(input, "", output)
	require.NoError(t, err)
	assert.Empty(t, result.Sheet)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, acmeXML, string(data))
}

func TestConvertFileCustomRules(t *testing.T) {
	cfg, err := config.Parse([]byte(`
fields:
  - key: LEDGER
    candidates: ["party"]
  - key: COUNTRY
    default: India
`))
	require.NoError(t, err)

	input := writeWorkbook(t, [][]any{
		{"Party", "Ledger Code"},
		{"Acme", "L-1"},
	})
	output := filepath.Join(t.TempDir(), "out.xml")

	result, err := New(cfg, nil).ConvertFile(input, "", output)
	require.NoError(t, err)
	assert.Equal(t, "Party", result.Mapping[types.FieldLedger])

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<LEDGER NAME="Acme" RESERVEDNAME="">`)
	assert.Contains(t, string(data), "<COUNTRYNAME>India</COUNTRYNAME>")
}

func TestConvertFileErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	tests := []struct {
		name   string
		input  func(t *testing.T) string
		sheet  string
		output string
		kind   error
	}{
		{
			name:   "missing input",
			input:  func(*testing.T) string { return filepath.Join(dir, "missing.xlsx") },
			output: filepath.Join(dir, "missing.xml"),
			kind:   ErrSourceRead,
		},
		{
			name: "not a workbook",
			input: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "broken.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
				return path
			},
			output: filepath.Join(dir, "broken.xml"),
			kind:   ErrSourceRead,
		},
		{
			name: "unsupported extension",
			input: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "ledgers.pdf")
				require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
				return path
			},
			output: filepath.Join(dir, "pdf.xml"),
			kind:   ErrSourceRead,
		},
		{
			name:   "unknown sheet",
			input:  acmeWorkbook,
			sheet:  "Nope",
			output: filepath.Join(dir, "sheet.xml"),
			kind:   ErrSourceRead,
		},
		{
			name: "control character in cell",
			input: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "ledgers.csv")
				require.NoError(t, os.WriteFile(path, []byte("Ledger,Group\nAcme\x0bTraders,Sundry Creditors\n"), 0o644))
				return path
			},
			output: filepath.Join(dir, "control.xml"),
			kind:   ErrConversion,
		},
		{
			name:   "unwritable output",
			input:  acmeWorkbook,
			output: filepath.Join(blocker, "out.xml"),
			kind:   ErrWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, nil).ConvertFile(tt.input(t), tt.sheet, tt.output)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var convErr *Error
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, tt.kind, convErr.Kind)
			assert.NotNil(t, convErr.Err)

			_, statErr := os.Stat(tt.output)
			assert.Error(t, statErr, "no output may be written on failure")
		})
	}
}

func TestConvertFileKeepsCause(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(nil, nil).ConvertFile(missing, "", filepath.Join(t.TempDir(), "out.xml"))

	assert.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.Contains(t, err.Error(), missing)
}

func TestConvertTableInvalid(t *testing.T) {
	table := &types.Table{
		Headers:    []string{"Ledger"},
		Rows:       []types.Row{{Number: 2, Cells: map[string]string{"Ledger": "Acme", "Stray": "x"}}},
		SourceFile: "ledgers.xlsx",
	}

	data, _, err := New(nil, nil).ConvertTable(table)
	require.Error(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrConversion)
	assert.Contains(t, err.Error(), `"Stray"`)

	_, _, err = New(nil, nil).ConvertTable(nil)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestConvertTableControlCharacter(t *testing.T) {
	table := types.NewTable([][]string{
		{"Ledger", "Group"},
		{"Acme\x0bTraders", "Sundry Creditors"},
	})

	data, stats, err := New(nil, nil).ConvertTable(table)
	require.Error(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrConversion)
	assert.Contains(t, err.Error(), "U+000B")
	assert.Zero(t, stats.LedgersWritten)
}

func TestConvertTableCounts(t *testing.T) {
	records := [][]string{{"Ledger Name", "Group"}}
	for i := 0; i < 10; i++ {
		name := ""
		if i%3 == 0 {
			name = fmt.Sprintf("Ledger %d", i)
		}
		records = append(records, []string{name, "G"})
	}

	data, stats, err := New(nil, nil).ConvertTable(types.NewTable(records))
	require.NoError(t, err)

	assert.Equal(t, 10, stats.RowsRead)
	assert.Equal(t, 4, stats.LedgersWritten)
	assert.Equal(t, 6, stats.RowsSkipped)
	assert.Equal(t, 4, strings.Count(string(data), "<TALLYMESSAGE "))
	assert.Len(t, parseEnvelope(t, data).Messages, 4)
}

func TestConvertTableEmpty(t *testing.T) {
	data, stats, err := New(nil, nil).ConvertTable(types.NewTable(nil))
	require.NoError(t, err)

	assert.Zero(t, stats.LedgersWritten)
	assert.Contains(t, string(data), "<REQUESTDATA/>")
}

func TestConvertLogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	conv := New(nil, zap.New(core))

	table := types.NewTable([][]string{{"Customer"}, {"Acme"}})
	_, stats, err := conv.ConvertTable(table)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RowsSkipped)

	entries := logs.FilterField(zap.String("code", validation.CodeLedgerUnresolved)).All()
	assert.Len(t, entries, 1)
}

func TestInspect(t *testing.T) {
	input := writeWorkbook(t, [][]any{
		{"Ledger", "Address (City/State)", "Email"},
		{"Acme", "Dhaka", ""},
		{"Acme", "Khulna", ""},
		{"", "Sylhet", ""},
	})

	report, err := New(nil, nil).Inspect(input, "")
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", report.Sheet)
	assert.Equal(t, []string{"Ledger", "Address (City/State)", "Email"}, report.Headers)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 2, report.Ledgers)
	assert.Equal(t, "Address (City/State)", report.Mapping[types.FieldState])
	assert.Equal(t, "Bangladesh", report.Defaults[types.FieldCountry])
	assert.Equal(t, []types.FieldKey{
		types.FieldGroup,
		types.FieldBalance,
		types.FieldAddr1,
		types.FieldAddr2,
		types.FieldCountry,
		types.FieldMobile,
	}, report.Unresolved())

	var codes []string
	for _, w := range report.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{validation.CodeAmbiguousColumn, validation.CodeDuplicateLedger}, codes)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := New(nil, nil).Inspect(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.ErrorIs(t, err, ErrSourceRead)
}
