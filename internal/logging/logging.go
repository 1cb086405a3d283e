// =============================================================================
// Excel to Tally XML Converter - Logging
// =============================================================================
//
// Builds the zap logger shared by the CLI, the converter and the web shell.
//
//   - Default: JSON encoder (zap production profile), level from log_level.
//   - --verbose: console encoder (zap development profile), debug level.
//
// =============================================================================

package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger at level. An empty level means "info". verbose
// switches to the human-readable development profile and forces debug.
func New(level string, verbose bool) (*zap.Logger, error) {
	atomic, err := resolveLevel(level, verbose)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = atomic
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func resolveLevel(level string, verbose bool) (zap.AtomicLevel, error) {
	if verbose {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	if strings.TrimSpace(level) == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}

	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}

	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return zap.NewAtomicLevelAt(parsed), nil
}
