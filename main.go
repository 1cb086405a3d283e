// =============================================================================
// Excel to Tally XML Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the tallyxml CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   tallyxml convert   - Convert one spreadsheet to Tally XML
//   tallyxml batch     - Convert every spreadsheet in the input directory
//   tallyxml inspect   - Show the detected column mapping
//   tallyxml serve     - Run the web upload form
//   tallyxml version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (readers, column resolver, XML builder,
//                      conversion pipeline, web shell)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/excel-to-tally-xml/cmd"
)

func main() {
	cmd.Execute()
}
