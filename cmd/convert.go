// =============================================================================
// Excel to Tally XML Converter - Convert Command
// =============================================================================
//
// COMMAND USAGE:
//   tallyxml convert --input FILE [--sheet NAME] [--output FILE]
//
// FLAGS:
//   --input   : Spreadsheet to convert (.xlsx, .xlsm, .xls, .csv)
//   --sheet   : Sheet to read (default: configured sheet, then the first)
//   --output  : XML file to write (default: <output_dir>/<input name>.xml)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/validation"
	"github.com/spf13/cobra"
)

var (
	convertInput  string
	convertSheet  string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one spreadsheet to Tally XML",
	Long: `The convert command reads one sheet of a spreadsheet, detects which column
holds each ledger field and writes a Tally "All Masters" XML file.

The output file is written atomically: on any error no file is created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := convertOutput
		if output == "" {
			output = defaultOutputPath(appConfig.OutputDir, convertInput)
		}

		conv := converter.New(appConfig, logger)
		result, err := conv.ConvertFile(convertInput, convertSheet, output)
		if err != nil {
			return err
		}

		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Spreadsheet to convert")
	convertCmd.Flags().StringVarP(&convertSheet, "sheet", "s", "", "Sheet to read (default: first sheet)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "XML file to write")
	convertCmd.MarkFlagRequired("input")
}

// defaultOutputPath returns <dir>/<input name without extension>.xml.
func defaultOutputPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".xml")
}

func printResult(w io.Writer, result *converter.Result) {
	fmt.Fprintf(w, "Input:    %s\n", result.InputFile)
	if result.Sheet != "" {
		fmt.Fprintf(w, "Sheet:    %s\n", result.Sheet)
	}
	fmt.Fprintf(w, "Output:   %s\n", result.OutputFile)
	fmt.Fprintf(w, "Ledgers:  %d\n", result.Stats.LedgersWritten)
	fmt.Fprintf(w, "Skipped:  %d (no ledger name)\n", result.Stats.RowsSkipped)
	fmt.Fprintf(w, "Time:     %s\n", result.Stats.Duration)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, validation.FormatWarnings(result.Warnings))
	}
}
