// =============================================================================
// Excel to Tally XML Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// conversion pipeline for a single spreadsheet, from reading the sheet to
// writing the Tally XML document.
//
// CONVERSION PIPELINE:
//   1. Read the sheet into a types.Table (xlsx, xls or csv)
//   2. Check the table shape
//   3. Resolve the field -> column mapping
//   4. Report mapping warnings
//   5. Extract one ledger record per named row
//   6. Build and serialize the XML document
//   7. Write the output file atomically
//
// CONCURRENCY:
//   A Converter only holds immutable configuration and may be shared by
//   goroutines. Every call builds its own mapping and document.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/validation"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/xmlwriter"
	"github.com/ginjaninja78/excel-to-tally-xml/pkg/utils"
	"go.uber.org/zap"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// InputFile is the path to the spreadsheet that was read.
	InputFile string

	// OutputFile is the path to the generated XML file.
	OutputFile string

	// Sheet is the sheet that was read. Empty for CSV input.
	Sheet string

	// Mapping is the resolved field -> column mapping.
	Mapping types.FieldMapping

	// Warnings are non-fatal findings about the mapping and the data.
	Warnings []*validation.Warning

	// Stats contains conversion statistics.
	Stats Stats
}

// Stats contains statistics about a conversion.
type Stats struct {
	// RowsRead is the number of non-blank data rows in the sheet.
	RowsRead int

	// LedgersWritten is the number of TALLYMESSAGE fragments emitted.
	LedgersWritten int

	// RowsSkipped is the number of rows without a ledger name.
	RowsSkipped int

	// Duration is the time taken by the conversion.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter turns ledger spreadsheets into Tally XML import documents.
type Converter struct {
	cfg      *config.Config
	resolver *Resolver
	options  xmlwriter.GenerateOptions
	logger   *zap.Logger
}

// New creates a new Converter.
//
// PARAMETERS:
//   - cfg: The application configuration. nil uses config.Default().
//   - logger: The logger. nil disables logging.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.Config, logger *zap.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Converter{
		cfg:      cfg,
		resolver: NewResolver(cfg.Rules),
		options:  xmlwriter.DefaultGenerateOptions(),
		logger:   logger,
	}
}

// Convert converts inputPath to outputPath with the default configuration.
// An empty sheet reads the first sheet.
func Convert(inputPath, sheet, outputPath string) error {
	_, err := New(nil, nil).ConvertFile(inputPath, sheet, outputPath)
	return err
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// ConvertFile reads one sheet of inputPath and writes the Tally XML document
// to outputPath. On any failure nothing is written to outputPath.
//
// PARAMETERS:
//   - inputPath: The spreadsheet (.xlsx, .xlsm, .xls, .csv).
//   - sheet: The sheet to read; "" uses the configured sheet, then the first.
//   - outputPath: Where to write the XML. Parent directories are created.
//
// RETURNS:
//   - The Result on success.
//   - A *Error whose Kind is ErrSourceRead, ErrConversion or ErrWrite.
func (c *Converter) ConvertFile(inputPath, sheet, outputPath string) (*Result, error) {
	startTime := time.Now()
	if sheet == "" {
		sheet = c.cfg.Sheet
	}

	log := c.logger.With(zap.String("input", inputPath), zap.String("output", outputPath))
	log.Info("converting file")

	// =========================================================================
	// STEP 1: READ SOURCE
	// =========================================================================

	table, err := LoadTable(inputPath, sheet, c.cfg.CSVSettings)
	if err != nil {
		log.Error("failed to read source", zap.Error(err))
		return nil, newError(ErrSourceRead, inputPath, err)
	}

	log.Debug("read table",
		zap.String("sheet", table.Sheet),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", len(table.Rows)))

	// =========================================================================
	// STEPS 2-6: CONVERT
	// =========================================================================

	doc, err := c.convert(table)
	if err != nil {
		log.Error("conversion failed", zap.Error(err))
		return nil, newError(ErrConversion, inputPath, err)
	}

	// =========================================================================
	// STEP 7: WRITE OUTPUT
	// =========================================================================

	if err := writeOutput(outputPath, doc.data); err != nil {
		log.Error("failed to write output", zap.Error(err))
		return nil, newError(ErrWrite, outputPath, err)
	}

	doc.stats.Duration = time.Since(startTime)

	log.Info("wrote output",
		zap.Int("ledgers", doc.stats.LedgersWritten),
		zap.Int("skipped", doc.stats.RowsSkipped),
		zap.Int("warnings", len(doc.warnings)),
		zap.Duration("duration", doc.stats.Duration))

	return &Result{
		InputFile:  inputPath,
		OutputFile: outputPath,
		Sheet:      table.Sheet,
		Mapping:    doc.mapping,
		Warnings:   doc.warnings,
		Stats:      doc.stats,
	}, nil
}

// ConvertTable converts an in-memory table and returns the serialized XML
// document. Failures are *Error values of kind ErrConversion.
func (c *Converter) ConvertTable(table *types.Table) ([]byte, Stats, error) {
	startTime := time.Now()

	doc, err := c.convert(table)
	if err != nil {
		path := ""
		if table != nil {
			path = table.SourceFile
		}
		return nil, Stats{}, newError(ErrConversion, path, err)
	}

	doc.stats.Duration = time.Since(startTime)
	return doc.data, doc.stats, nil
}

// document is the product of one conversion before it is written.
type document struct {
	data     []byte
	mapping  types.FieldMapping
	warnings []*validation.Warning
	stats    Stats
}

func (c *Converter) convert(table *types.Table) (*document, error) {
	if table == nil {
		return nil, errors.New("no table to convert")
	}

	// =========================================================================
	// STEP 2: CHECK TABLE SHAPE
	// =========================================================================

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}

	// =========================================================================
	// STEP 3: RESOLVE MAPPING
	// =========================================================================

	mapping := c.resolver.Resolve(table.Headers)
	for _, key := range types.AllFields {
		if column, ok := mapping.Column(key); ok {
			c.logger.Debug("resolved field", zap.String("field", string(key)), zap.String("column", column))
		}
	}

	// =========================================================================
	// STEP 4: MAPPING WARNINGS
	// =========================================================================

	warnings := validation.Check(table, mapping)
	for _, w := range warnings {
		c.logger.Warn(w.Message, zap.String("code", w.Code), zap.String("source", table.SourceFile))
	}

	// =========================================================================
	// STEPS 5-6: EXTRACT RECORDS AND BUILD DOCUMENT
	// =========================================================================

	extractor := NewExtractor(mapping, c.cfg.Rules)
	builder := xmlwriter.NewBuilder(c.options)
	stats := Stats{RowsRead: len(table.Rows)}

	for _, row := range table.Rows {
		record, ok := extractor.Extract(row)
		if !ok {
			stats.RowsSkipped++
			continue
		}
		if err := builder.AddLedger(record); err != nil {
			return nil, fmt.Errorf("failed to add ledger: %w", err)
		}
	}
	stats.LedgersWritten = builder.Count()

	data, err := builder.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate XML: %w", err)
	}

	return &document{data: data, mapping: mapping, warnings: warnings, stats: stats}, nil
}

// writeOutput creates the parent directory and writes data atomically.
func writeOutput(outputPath string, data []byte) error {
	if outputPath == "" {
		return errors.New("no output path given")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return utils.WriteFileAtomic(outputPath, data, 0644)
}

// =============================================================================
// INSPECTION
// =============================================================================

// Report describes how a spreadsheet would be converted.
type Report struct {
	InputFile string
	Sheet     string
	Headers   []string
	Mapping   types.FieldMapping

	// Defaults holds the value used for each field when its column is
	// unresolved or its cell is blank.
	Defaults map[types.FieldKey]string

	// Rows is the number of data rows; Ledgers the number with a name.
	Rows    int
	Ledgers int

	Warnings []*validation.Warning
}

// Unresolved returns the fields without a column, in canonical order.
func (r *Report) Unresolved() []types.FieldKey {
	var keys []types.FieldKey
	for _, key := range types.AllFields {
		if _, ok := r.Mapping.Column(key); !ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Inspect reads inputPath and reports the mapping, defaults and warnings
// without writing anything.
func (c *Converter) Inspect(inputPath, sheet string) (*Report, error) {
	if sheet == "" {
		sheet = c.cfg.Sheet
	}

	table, err := LoadTable(inputPath, sheet, c.cfg.CSVSettings)
	if err != nil {
		return nil, newError(ErrSourceRead, inputPath, err)
	}

	doc, err := c.convert(table)
	if err != nil {
		return nil, newError(ErrConversion, inputPath, err)
	}

	defaults := make(map[types.FieldKey]string, len(c.cfg.Rules))
	for _, rule := range c.cfg.Rules {
		defaults[rule.Key] = rule.Default
	}

	return &Report{
		InputFile: inputPath,
		Sheet:     table.Sheet,
		Headers:   table.Headers,
		Mapping:   doc.mapping,
		Defaults:  defaults,
		Rows:      doc.stats.RowsRead,
		Ledgers:   doc.stats.LedgersWritten,
		Warnings:  doc.warnings,
	}, nil
}
