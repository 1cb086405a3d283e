package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/csvparser"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/xlsxparser"
)

// LoadTable reads one sheet of path into a Table, choosing the reader by
// file extension:
//
//	.xlsx .xlsm .xltx .xltm  Office Open XML workbook
//	.xls                     legacy BIFF workbook, first sheet only
//	.csv .txt                delimited text
func LoadTable(path, sheet string, csv config.CSVSettings) (*types.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return xlsxparser.Parse(path, sheet)
	case ".xls":
		return xlsxparser.ParseXLS(path, sheet)
	case ".csv", ".txt":
		return csvparser.Parse(path, csv)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}
