// Package log provides structured logging for the transit inference pipeline.
//
// It is a thin layer over zerolog that fixes the output format and defines
// the standard attribute keys used across the pipeline, so that every stage
// logs variants, batch shapes and durations under the same field names.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Standard attribute keys. Every pipeline stage logs these under the same
// names so that a single query can follow a batch through the whole flow.
const (
	// VariantKey identifies the dataset variant ("kepler", "tess", "tess-full").
	VariantKey = "variant"

	// StageKey identifies the pipeline stage
	// (normalize, engineer, impute, infer, decode).
	StageKey = "stage"

	// RowsKey is the number of rows in the batch being processed.
	RowsKey = "rows"

	// FeaturesKey is the number of feature columns after engineering.
	FeaturesKey = "features"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "duration_ms"

	// ComponentKey identifies which package emitted the record.
	ComponentKey = "component"
)

// New returns a configured logger writing JSON records to w.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger for CLI use.
func NewConsole(level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything. Useful as a default in
// library code when the caller did not inject a logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel maps a config string to a zerolog level. Unknown strings fall
// back to info rather than failing startup.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
