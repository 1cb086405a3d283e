// =============================================================================
// Excel to Tally XML Converter - Spreadsheet Parser
// =============================================================================
//
// This module reads ledger spreadsheets into a types.Table. Only one sheet is
// read per conversion: the named sheet, or the first sheet when no name is
// given.
//
// SUPPORTED FORMATS:
//   - .xlsx / .xlsm / .xltx / .xltm : Office Open XML, read with excelize
//   - .xls                          : legacy BIFF workbooks, read with
//                                     extrame/xls (first sheet only)
//
// Cell values are taken as displayed text. Numbers keep the formatting of the
// workbook, so an opening balance formatted as "1,500.00" is passed through as
// such.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a named sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads one sheet of an Office Open XML workbook.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - sheet: The sheet to read; "" selects the first sheet.
//
// RETURNS:
//   - The sheet as a Table.
//   - An error if the file cannot be opened or the sheet cannot be read.
func Parse(path, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := selectSheet(f.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	table := types.NewTable(rows)
	table.SourceFile = path
	table.Sheet = sheetName

	return table, nil
}

// ParseXLS reads the first sheet of a legacy .xls workbook. Selecting a sheet
// by name is not supported for this format.
func ParseXLS(path, sheet string) (table *types.Table, err error) {
	if sheet != "" {
		return nil, fmt.Errorf("selecting sheet %q is not supported for .xls files; save the workbook as .xlsx or move the sheet first", sheet)
	}

	// extrame/xls panics on some malformed BIFF records.
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("failed to read workbook: %v", r)
		}
	}()

	book, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("failed to open workbook: no workbook stream in %s", path)
	}

	ws := book.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// MaxRow is the last row index, not the row count.
	records := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := sheetRow(ws, i)
		if row == nil {
			records = append(records, nil)
			continue
		}

		record := make([]string, row.LastCol())
		for c := range record {
			record[c] = row.Col(c)
		}
		records = append(records, record)
	}

	table = types.NewTable(records)
	table.SourceFile = path
	table.Sheet = ws.Name

	return table, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectSheet picks the requested sheet, or the first one.
func selectSheet(sheets []string, requested string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if requested == "" {
		return sheets[0], nil
	}

	for _, name := range sheets {
		if name == requested {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: %q (available: %v)", ErrSheetNotFound, requested, sheets)
}

// sheetRow returns row i of the sheet, or nil when the sheet holds no record
// for it. WorkSheet.Row dereferences the stored row without checking it.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}
