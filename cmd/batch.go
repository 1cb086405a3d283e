// =============================================================================
// Excel to Tally XML Converter - Batch Command
// =============================================================================
//
// This file defines the 'batch' command, which converts every spreadsheet in
// the input directory.
//
// COMMAND USAGE:
//   tallyxml batch [--dry-run]
//
// FLAGS:
//   --dry-run : Inspect every file without writing output or archiving
//
// PROCESSING PIPELINE:
//   1. Create the working directories
//   2. Discover spreadsheets in the input directory
//   3. Convert each file concurrently (at most max_concurrency at a time)
//   4. Archive each successfully converted input
//   5. Print and write the summary report
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// dryRun inspects files without writing output files.
var dryRun bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert every spreadsheet in the input directory",
	Long: `The batch command scans the input directory for spreadsheets and converts
each of them to Tally XML in the output directory.

Files are converted concurrently. Each file is independent: an error in one
does not affect the others.

On success:
  - The generated XML is placed in the output directory
  - The input is moved to the input archive
On error:
  - The input remains in the input directory
  - The error is listed in the summary report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := runBatch(appConfig, logger, cmd.OutOrStdout(), dryRun)
		if err != nil {
			return err
		}
		if summary.FailedFiles > 0 {
			return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Inspect files without writing output or archiving inputs",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// fileOutcome is the result of one file in a batch.
type fileOutcome struct {
	input    string
	result   *converter.Result
	report   *converter.Report
	archived string
	elapsed  time.Duration
	err      error
}

// runBatch converts every spreadsheet in cfg.InputDir and returns the summary.
func runBatch(cfg *config.Config, log *zap.Logger, out io.Writer, dryRun bool) (*utils.ProcessingSummary, error) {
	summary := &utils.ProcessingSummary{StartTime: time.Now()}

	// =========================================================================
	// STEP 1: PREPARE DIRECTORIES
	// =========================================================================

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, "")
	fm.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs
	if err := fm.EnsureDirectories(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := fm.DiscoverInputFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}

	summary.TotalFiles = len(inputFiles)
	if len(inputFiles) == 0 {
		fmt.Fprintf(out, "No spreadsheets found in %s\n", cfg.InputDir)
		summary.EndTime = time.Now()
		return summary, nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	conv := converter.New(cfg, log)
	stems := outputStems(inputFiles)

	workers := cfg.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	results := make(chan fileOutcome, len(inputFiles))

	var wg sync.WaitGroup
	for _, file := range inputFiles {
		wg.Add(1)
		go func(input string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- processFile(conv, fm, cfg, input, stems[input], dryRun)
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	for outcome := range results {
		name := filepath.Base(outcome.input)

		if outcome.err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    outcome.input,
				ErrorMessage: outcome.err.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, outcome.err)
			continue
		}

		summary.SuccessfulFiles++

		if outcome.report != nil {
			r := outcome.report
			summary.TotalRows += r.Rows
			summary.TotalLedgers += r.Ledgers
			summary.SkippedRows += r.Rows - r.Ledgers
			summary.Warnings += len(r.Warnings)
			fmt.Fprintf(out, "  ✓ %s: %d ledger(s), %d warning(s) (dry run)\n", name, r.Ledgers, len(r.Warnings))
			continue
		}

		r := outcome.result
		summary.TotalRows += r.Stats.RowsRead
		summary.TotalLedgers += r.Stats.LedgersWritten
		summary.SkippedRows += r.Stats.RowsSkipped
		summary.Warnings += len(r.Warnings)
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   outcome.input,
			OutputFile:  r.OutputFile,
			ArchivePath: outcome.archived,
			Rows:        r.Stats.RowsRead,
			Ledgers:     r.Stats.LedgersWritten,
			ProcessTime: outcome.elapsed,
		})
		fmt.Fprintf(out, "  ✓ %s -> %s\n", name, r.OutputFile)
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Ledgers:         %d\n", summary.TotalLedgers)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(*summary, cfg.OutputDir)
		if err != nil {
			log.Warn("failed to write summary", zap.Error(err))
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", path)
		}
	}

	return summary, nil
}

// processFile converts (or, in a dry run, inspects) one input.
func processFile(conv *converter.Converter, fm *utils.FileManager, cfg *config.Config, input, stem string, dryRun bool) fileOutcome {
	start := time.Now()
	outcome := fileOutcome{input: input}

	if dryRun {
		outcome.report, outcome.err = conv.Inspect(input, "")
		outcome.elapsed = time.Since(start)
		return outcome
	}

	name := utils.GenerateOutputFileName(cfg.OutputFileFormat, map[string]string{"original": stem})
	outcome.result, outcome.err = conv.ConvertFile(input, "", filepath.Join(cfg.OutputDir, name))
	outcome.elapsed = time.Since(start)
	if outcome.err != nil {
		return outcome
	}

	archived, err := fm.ArchiveInputFile(input)
	if err != nil {
		outcome.err = fmt.Errorf("converted to %s but failed to archive input: %w", outcome.result.OutputFile, err)
		return outcome
	}
	outcome.archived = archived

	return outcome
}

// outputStems returns the {original} value for each input: the file name
// without extension, or with the extension appended when two inputs share
// the same stem ("ledgers.csv" and "ledgers.xlsx").
func outputStems(files []string) map[string]string {
	count := make(map[string]int, len(files))
	for _, file := range files {
		count[stem(file)]++
	}

	stems := make(map[string]string, len(files))
	for _, file := range files {
		s := stem(file)
		if count[s] > 1 {
			s += "_" + strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
		}
		stems[file] = s
	}
	return stems
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
