package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/converter"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/validation"
	"github.com/spf13/cobra"
)

var (
	inspectInput string
	inspectSheet string
)

// inspectCmd shows how a spreadsheet would be converted without writing.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the detected column mapping of a spreadsheet",
	Long: `The inspect command reads a spreadsheet and prints which column was matched
to each ledger field, the default used for unmatched fields, the row counts
and any warnings. Nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := converter.New(appConfig, logger).Inspect(inspectInput, inspectSheet)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Spreadsheet to inspect")
	inspectCmd.Flags().StringVarP(&inspectSheet, "sheet", "s", "", "Sheet to read (default: first sheet)")
	inspectCmd.MarkFlagRequired("input")
}

// writeReport prints the mapping as a table, one line per field.
func writeReport(w io.Writer, report *converter.Report) error {
	fmt.Fprintf(w, "File:     %s\n", report.InputFile)
	if report.Sheet != "" {
		fmt.Fprintf(w, "Sheet:    %s\n", report.Sheet)
	}
	fmt.Fprintf(w, "Rows:     %d (%d with a ledger name)\n\n", report.Rows, report.Ledgers)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tCOLUMN\tDEFAULT")
	for _, key := range types.AllFields {
		column, ok := report.Mapping.Column(key)
		if !ok {
			column = "-"
		}
		def := report.Defaults[key]
		if def == "" {
			def = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, column, def)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, validation.FormatWarnings(report.Warnings))
	return nil
}
