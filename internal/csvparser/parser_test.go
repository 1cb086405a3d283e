package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	data := "\xEF\xBB\xBF*Ledger Name,Group,Opening Balance\n" +
		"Acme Traders,Sundry Creditors,1500.00\n" +
		",,\n" +
		"\"Smith, Jones & Co\",,\n"

	table, err := Read(strings.NewReader(data), config.CSVSettings{Delimiter: ","})
	require.NoError(t, err)

	assert.Equal(t, []string{"*Ledger Name", "Group", "Opening Balance"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Acme Traders", table.Rows[0].Get("*Ledger Name"))
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, "Smith, Jones & Co", table.Rows[1].Get("*Ledger Name"))
	assert.Equal(t, 4, table.Rows[1].Number)
}

func TestReadDelimiters(t *testing.T) {
	tests := []struct {
		name      string
		delimiter string
		data      string
	}{
		{name: "semicolon", delimiter: ";", data: "Ledger;Group\nAcme;Debtors\n"},
		{name: "pipe word", delimiter: "pipe", data: "Ledger|Group\nAcme|Debtors\n"},
		{name: "tab word", delimiter: "tab", data: "Ledger\tGroup\nAcme\tDebtors\n"},
		{name: "escaped tab", delimiter: "\\t", data: "Ledger\tGroup\nAcme\tDebtors\n"},
		{name: "default comma", delimiter: "", data: "Ledger,Group\nAcme,Debtors\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read(strings.NewReader(tt.data), config.CSVSettings{Delimiter: tt.delimiter})
			require.NoError(t, err)
			assert.Equal(t, []string{"Ledger", "Group"}, table.Headers)
			require.Len(t, table.Rows, 1)
			assert.Equal(t, "Debtors", table.Rows[0].Get("Group"))
		})
	}
}

func TestReadLegacyEncoding(t *testing.T) {
	// "Café" in windows-1252.
	data := "Ledger\nCaf\xe9\n"

	table, err := Read(strings.NewReader(data), config.CSVSettings{Encoding: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Café", table.Rows[0].Get("Ledger"))
}

func TestReadUnknownEncoding(t *testing.T) {
	_, err := Read(strings.NewReader("a\n"), config.CSVSettings{Encoding: "klingon-8"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgers.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ledger,Email\nAcme,a@b.test\n"), 0o644))

	table, err := Parse(path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, "a@b.test", table.Rows[0].Get("Email"))

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), config.CSVSettings{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadEmpty(t *testing.T) {
	table, err := Read(strings.NewReader(""), config.CSVSettings{})
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
}
