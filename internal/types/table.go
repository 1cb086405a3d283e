package types

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// TABULAR SOURCE
// =============================================================================

// Table is one sheet of input data: a header row followed by data rows.
// Every row is keyed by the headers of the header row.
type Table struct {
	// Headers contains the column headers in sheet order.
	// Blank headers are named "Unnamed: <index>" and repeated headers get a
	// ".1", ".2", ... suffix so every column can be addressed.
	Headers []string

	// Rows contains the data rows in sheet order.
	Rows []Row

	// SourceFile is the path the table was read from, if any.
	SourceFile string

	// Sheet is the sheet the table was read from, if any.
	Sheet string
}

// Row is a single data row.
type Row struct {
	// Number is the 1-based row number in the source sheet.
	Number int

	// Cells maps column header to the raw cell text.
	Cells map[string]string
}

// Get returns the cell value for header. Missing cells read as "".
func (r Row) Get(header string) string {
	return r.Cells[header]
}

// NewTable builds a Table from raw records as returned by a sheet or CSV
// reader. The first record containing any non-blank cell is the header row.
// Fully blank data rows are dropped and short rows are padded.
func NewTable(records [][]string) *Table {
	table := &Table{}

	headerIndex := -1
	for i, record := range records {
		if !isRecordEmpty(record) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return table
	}

	table.Headers = uniqueHeaders(records[headerIndex])

	for i := headerIndex + 1; i < len(records); i++ {
		record := records[i]
		if isRecordEmpty(record) {
			continue
		}

		cells := make(map[string]string, len(table.Headers))
		for col, header := range table.Headers {
			if col < len(record) {
				cells[header] = record[col]
			} else {
				cells[header] = ""
			}
		}

		table.Rows = append(table.Rows, Row{Number: i + 1, Cells: cells})
	}

	return table
}

// Validate checks that every row only uses columns of the header row.
func (t *Table) Validate() error {
	known := make(map[string]struct{}, len(t.Headers))
	for _, header := range t.Headers {
		if _, dup := known[header]; dup {
			return fmt.Errorf("duplicate column header %q", header)
		}
		known[header] = struct{}{}
	}

	for i, row := range t.Rows {
		for header := range row.Cells {
			if _, ok := known[header]; !ok {
				return fmt.Errorf("row %d has column %q which is not in the header row", rowLabel(row, i), header)
			}
		}
	}

	return nil
}

// rowLabel prefers the sheet row number and falls back to the position.
func rowLabel(row Row, index int) int {
	if row.Number > 0 {
		return row.Number
	}
	return index + 1
}

// uniqueHeaders names blank headers and suffixes repeated ones.
func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)

	for i, header := range raw {
		if strings.TrimSpace(header) == "" {
			header = "Unnamed: " + strconv.Itoa(i)
		}

		name := header
		for used[name] {
			suffix[header]++
			name = header + "." + strconv.Itoa(suffix[header])
		}

		used[name] = true
		headers[i] = name
	}

	return headers
}

func isRecordEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
