// =============================================================================
// Excel to Tally XML Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tallyxml)
//   ├── convertCmd (tallyxml convert)
//   ├── batchCmd   (tallyxml batch)
//   ├── inspectCmd (tallyxml inspect)
//   ├── serveCmd   (tallyxml serve)
//   └── versionCmd (tallyxml version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads .env (if present) into the environment
//   2. Loads the YAML configuration (--config), or the defaults
//   3. Applies PORT / TALLYXML_* environment overrides
//   4. Builds the zap logger (--verbose switches to debug console output)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/config"
	"github.com/ginjaninja78/excel-to-tally-xml/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the YAML configuration file. Empty means
// built-in defaults.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set up by the root command before any
// subcommand runs.
var (
	appConfig *config.Config
	logger    *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tallyxml",
	Short: "Excel to Tally XML Converter - Turn ledger spreadsheets into Tally import files",
	Long: `tallyxml converts spreadsheets of accounting ledgers into the Tally
"All Masters" XML import format.

Column headers are matched loosely ("*Ledger Name", "Opening Balance",
"Address (City)", ...), missing values take configured defaults, and rows
without a ledger name are skipped.

Example Usage:
  tallyxml convert --input ledgers.xlsx         # Convert one file
  tallyxml inspect --input ledgers.xlsx         # Show the column mapping
  tallyxml batch                                # Convert everything in input_dir
  tallyxml serve                                # Run the upload form on :5000`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = log
	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: YAML configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the YAML configuration file (default: built-in settings)",
	)

	// --verbose flag: debug logging in console format.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
