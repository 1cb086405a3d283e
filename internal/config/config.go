// =============================================================================
// Excel to Tally XML Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing configuration. It
// handles the main application settings and the field rule table that drives
// column detection.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (Default, DefaultFieldRules)
//   2. Optional YAML file (--config)
//   3. Optional .env file and process environment (PORT, TALLYXML_*)
//
// FIELD RULES:
//   Column detection is data-driven. Each semantic field has an ordered list
//   of candidate phrases and a default value. New header variants are added
//   in YAML without touching the matching code:
//
//   fields:
//     - key: MOBILE
//       candidates: ["mobile", "mobile number", "cell"]
//     - key: STATE
//       default: "Chattogram"
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the batch command for spreadsheets.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated XML files.
	// Default: "./outputs"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives batch inputs after successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveTimestampSubdirs files archived inputs under YYYY/MM/DD
	// subdirectories of InputArchiveDir.
	// Default: false
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// UploadDir holds files received by the web server while they are
	// being converted.
	// Default: "./uploads"
	UploadDir string `yaml:"upload_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Sheet is the sheet to read when the caller does not name one.
	// Empty means the first sheet of the workbook.
	Sheet string `yaml:"sheet"`

	// OutputFileFormat defines batch output file names.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {original}
	// Default: "{original}_{timestamp}.xml"
	OutputFileFormat string `yaml:"output_file_format"`

	// MaxConcurrency is the maximum number of files the batch command
	// converts at the same time.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// CSVSettings applies to .csv inputs only.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Server configures the web upload shell.
	Server ServerConfig `yaml:"server"`

	// Fields holds per-field overrides of the built-in rule table.
	Fields []FieldOverride `yaml:"fields"`

	// Rules is the effective field rule table, built from DefaultFieldRules
	// and Fields when the configuration is loaded.
	Rules []FieldRule `yaml:"-"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV inputs.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "tab"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file, as an IANA or WHATWG
	// name. Common values: "UTF-8", "windows-1252", "ISO-8859-1"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// SERVER SETTINGS STRUCTURE
// =============================================================================

// ServerConfig configures the web upload shell.
type ServerConfig struct {
	// Listen is the TCP address to listen on. The PORT environment variable
	// overrides it with ":<PORT>".
	// Default: ":5000"
	Listen string `yaml:"listen"`

	// MaxUploadMB caps the size of an uploaded spreadsheet.
	// Default: 32
	MaxUploadMB int `yaml:"max_upload_mb"`

	// DownloadName is the file name offered to the browser.
	// Default: "Generated_Tally_Ledger.xml"
	DownloadName string `yaml:"download_name"`

	// RetentionHours is how long uploads and outputs are kept on disk.
	// Default: 24
	RetentionHours int `yaml:"retention_hours"`

	// CleanupSchedule is the cron expression for the retention job.
	// Default: "@hourly"
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// =============================================================================
// FIELD RULES
// =============================================================================

// FieldRule describes how one semantic field is detected and defaulted.
type FieldRule struct {
	// Key is the semantic field.
	Key types.FieldKey

	// Candidates are lower-case phrases in priority order. A header matches
	// when its trimmed, lower-cased text contains any of them.
	Candidates []string

	// Default replaces a blank cell or an unresolved column.
	Default string
}

// FieldOverride is the YAML form of a partial FieldRule.
type FieldOverride struct {
	Key        string   `yaml:"key"`
	Candidates []string `yaml:"candidates"`
	Default    *string  `yaml:"default"`
}

// DefaultFieldRules returns the built-in rule table, one rule per field key
// in canonical order.
func DefaultFieldRules() []FieldRule {
	return []FieldRule{
		{Key: types.FieldLedger, Candidates: []string{"ledger", "ledger name", "*ledger name"}},
		{Key: types.FieldGroup, Candidates: []string{"group", "type / group"}, Default: "Sundry Debtors"},
		{Key: types.FieldBalance, Candidates: []string{"opening balance", "balance"}, Default: "0.00"},
		{Key: types.FieldAddr1, Candidates: []string{"address (bldg", "address line 1", "address1"}},
		{Key: types.FieldAddr2, Candidates: []string{"address (road", "address line 2", "address2"}},
		{Key: types.FieldAddr3, Candidates: []string{"address (city", "city", "address3"}},
		{Key: types.FieldState, Candidates: []string{"state", "*address (state)"}, Default: "Dhaka"},
		{Key: types.FieldCountry, Candidates: []string{"country", "address (country)"}, Default: "Bangladesh"},
		{Key: types.FieldMobile, Candidates: []string{"mobile", "mobile number"}},
		{Key: types.FieldEmail, Candidates: []string{"email", "email id"}},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Rules = DefaultFieldRules()
	return cfg
}

// Load reads the configuration from a YAML file. An empty path returns the
// defaults.
//
// PARAMETERS:
//   - configPath: The path to the configuration file, or "".
//
// RETURNS:
//   - A pointer to the Config struct with defaults and field rules applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	rules, err := buildRules(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("invalid field rules: %w", err)
	}
	cfg.Rules = rules

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv loads environment variables from .env files. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// ApplyEnv overrides settings from the process environment.
//
// VARIABLES:
//   - PORT                 : listen on ":<PORT>"
//   - TALLYXML_LOG_LEVEL   : log level
//   - TALLYXML_OUTPUT_DIR  : output directory
//   - TALLYXML_UPLOAD_DIR  : upload directory
//   - TALLYXML_SHEET       : default sheet
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Listen = ":" + port
	}
	if level := os.Getenv("TALLYXML_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if dir := os.Getenv("TALLYXML_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if dir := os.Getenv("TALLYXML_UPLOAD_DIR"); dir != "" {
		c.UploadDir = dir
	}
	if sheet := os.Getenv("TALLYXML_SHEET"); sheet != "" {
		c.Sheet = sheet
	}

	return c.Validate()
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./outputs"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputFileFormat == "" {
		cfg.OutputFileFormat = "{original}_{timestamp}.xml"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}

	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.Encoding == "" {
		cfg.CSVSettings.Encoding = "UTF-8"
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":5000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.DownloadName == "" {
		cfg.Server.DownloadName = "Generated_Tally_Ledger.xml"
	}
	if cfg.Server.RetentionHours == 0 {
		cfg.Server.RetentionHours = 24
	}
	if cfg.Server.CleanupSchedule == "" {
		cfg.Server.CleanupSchedule = "@hourly"
	}
}

// buildRules merges overrides into the built-in rule table.
func buildRules(overrides []FieldOverride) ([]FieldRule, error) {
	rules := DefaultFieldRules()
	index := make(map[types.FieldKey]int, len(rules))
	for i, rule := range rules {
		index[rule.Key] = i
	}

	seen := make(map[types.FieldKey]bool, len(overrides))
	for _, override := range overrides {
		key, err := types.ParseFieldKey(override.Key)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, fmt.Errorf("field %s is configured more than once", key)
		}
		seen[key] = true

		rule := &rules[index[key]]

		if len(override.Candidates) > 0 {
			candidates := make([]string, 0, len(override.Candidates))
			for _, candidate := range override.Candidates {
				candidate = strings.ToLower(strings.TrimSpace(candidate))
				if candidate == "" {
					return nil, fmt.Errorf("field %s has an empty candidate phrase", key)
				}
				candidates = append(candidates, candidate)
			}
			rule.Candidates = candidates
		}

		if override.Default != nil {
			if key == types.FieldLedger && *override.Default != "" {
				return nil, fmt.Errorf("field %s cannot have a default", key)
			}
			rule.Default = *override.Default
		}
	}

	return rules, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}
	if c.Server.RetentionHours < 1 {
		return fmt.Errorf("server.retention_hours must be at least 1")
	}
	if len(c.Rules) != len(types.AllFields) {
		return fmt.Errorf("field rule table has %d entries, want %d", len(c.Rules), len(types.AllFields))
	}

	return nil
}

// Rule returns the effective rule for key.
func (c *Config) Rule(key types.FieldKey) FieldRule {
	for _, rule := range c.Rules {
		if rule.Key == key {
			return rule
		}
	}
	return FieldRule{Key: key}
}
