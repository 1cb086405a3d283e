package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func batchConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "outputs")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	cfg.MaxConcurrency = 2
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	return cfg
}

func writeInput(t *testing.T, cfg *config.Config, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunBatch(t *testing.T) {
	cfg := batchConfig(t)
	writeInput(t, cfg, "a.csv", "Ledger Name,Group\nAcme,X\n,Y\n")
	writeInput(t, cfg, "b.csv", "Ledger\nBeta\nGamma\n")
	broken := writeInput(t, cfg, "c.xlsx", "not a workbook")

	var out bytes.Buffer
	summary, err := runBatch(cfg, zap.NewNop(), &out, false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 2, summary.SuccessfulFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, 3, summary.TotalLedgers)
	assert.Equal(t, 1, summary.SkippedRows)
	require.Len(t, summary.FailedFilesList, 1)
	assert.Equal(t, broken, summary.FailedFilesList[0].InputFile)

	remaining, err := os.ReadDir(cfg.InputDir)
	require.NoError(t, err)
	require.Len(t, remaining, 1, "only the failed input stays behind")
	assert.Equal(t, "c.xlsx", remaining[0].Name())

	archived, err := os.ReadDir(cfg.InputArchiveDir)
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	xmlFiles, err := filepath.Glob(filepath.Join(cfg.OutputDir, "*.xml"))
	require.NoError(t, err)
	assert.Len(t, xmlFiles, 2)

	summaries, err := filepath.Glob(filepath.Join(cfg.OutputDir, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	assert.Contains(t, out.String(), "Successful:      2")
}

func TestRunBatchArchiveSubdirs(t *testing.T) {
	cfg := batchConfig(t)
	cfg.ArchiveTimestampSubdirs = true
	writeInput(t, cfg, "a.csv", "Ledger\nAcme\n")

	before := time.Now()
	summary, err := runBatch(cfg, zap.NewNop(), &bytes.Buffer{}, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.SuccessfulFiles)

	// Accept either side of midnight.
	var found bool
	for _, day := range []time.Time{before, time.Now()} {
		archived := filepath.Join(cfg.InputArchiveDir, day.Format("2006"), day.Format("01"), day.Format("02"), "a.csv")
		if _, err := os.Stat(archived); err == nil {
			found = true
		}
	}
	assert.True(t, found, "input archived under a YYYY/MM/DD subdirectory")

	_, err = os.Stat(filepath.Join(cfg.InputArchiveDir, "a.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunBatchDryRun(t *testing.T) {
	cfg := batchConfig(t)
	writeInput(t, cfg, "a.csv", "Ledger\nAcme\nAcme\n")

	var out bytes.Buffer
	summary, err := runBatch(cfg, zap.NewNop(), &out, true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SuccessfulFiles)
	assert.Equal(t, 2, summary.TotalLedgers)
	assert.Equal(t, 1, summary.Warnings)
	assert.Contains(t, out.String(), "(dry run)")

	outputs, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	_, err = os.Stat(filepath.Join(cfg.InputDir, "a.csv"))
	assert.NoError(t, err)
}

func TestRunBatchEmpty(t *testing.T) {
	cfg := batchConfig(t)

	var out bytes.Buffer
	summary, err := runBatch(cfg, zap.NewNop(), &out, false)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalFiles)
	assert.Contains(t, out.String(), "No spreadsheets found")
}

func TestOutputStems(t *testing.T) {
	stems := outputStems([]string{"in/ledgers.csv", "in/ledgers.XLSX", "in/other.xls"})

	assert.Equal(t, map[string]string{
		"in/ledgers.csv":  "ledgers_csv",
		"in/ledgers.XLSX": "ledgers_xlsx",
		"in/other.xls":    "other",
	}, stems)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "ledgers.xml"), defaultOutputPath("out", "/data/ledgers.xlsx"))
}

func TestWriteReport(t *testing.T) {
	report := &converter.Report{
		InputFile: "ledgers.xlsx",
		Sheet:     "Sheet1",
		Mapping:   types.FieldMapping{types.FieldLedger: "*Ledger Name"},
		Defaults:  map[types.FieldKey]string{types.FieldCountry: "Bangladesh"},
		Rows:      3,
		Ledgers:   2,
		Warnings:  []*validation.Warning{{Code: validation.CodeDuplicateLedger, Message: `ledger "Acme" appears on rows 2, 3`}},
	}

	var out bytes.Buffer
	require.NoError(t, writeReport(&out, report))

	text := out.String()
	assert.Contains(t, text, "Rows:     3 (2 with a ledger name)")
	assert.Regexp(t, `LEDGER\s+\*Ledger Name\s+-`, text)
	assert.Regexp(t, `COUNTRY\s+-\s+Bangladesh`, text)
	assert.Contains(t, text, "[duplicate_ledger]")
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, &converter.Result{
		InputFile:  "in.csv",
		OutputFile: "out.xml",
		Stats:      converter.Stats{LedgersWritten: 4, RowsSkipped: 1},
	})

	assert.Contains(t, out.String(), "Ledgers:  4")
	assert.Contains(t, out.String(), "Skipped:  1")
	assert.NotContains(t, out.String(), "Sheet:")
}
