// =============================================================================
// Excel to Tally XML Converter - CSV Parser Module
// =============================================================================
//
// This module reads ledger lists exported as CSV into a types.Table, for
// operators whose accounting data comes out of another system as text rather
// than as a workbook.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - Legacy encodings (windows-1252, ISO-8859-1, ...) decoded to UTF-8
//   - Leading UTF-8 byte order mark removed
//   - Ragged rows tolerated (short rows are padded by types.NewTable)
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns it as a Table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - The parsed Table.
//   - An error if the file cannot be opened, decoded or parsed.
func Parse(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Read(file, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath

	return table, nil
}

// Read parses CSV data from r.
func Read(r io.Reader, settings config.CSVSettings) (*types.Table, error) {
	decoder, err := lookupEncoding(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(transform.NewReader(r, decoder.NewDecoder()))
	if err := skipBOM(reader); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return types.NewTable(records), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Spreadsheet exports are not always strict about quoting.
	reader.LazyQuotes = true
}

// lookupEncoding resolves an encoding name. Empty means UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}

	return enc, nil
}

// skipBOM drops a leading UTF-8 byte order mark so the first header matches.
func skipBOM(reader *bufio.Reader) error {
	head, err := reader.Peek(3)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, err = reader.Discard(3)
		return err
	}
	return nil
}
