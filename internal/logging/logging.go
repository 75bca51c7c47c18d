// Package logging builds the service's *slog.Logger on top of zerolog.
//
// Every package logs through log/slog; records are rendered by zerolog as
// JSON lines (production) or colored console output (development). Request
// ids stored in the context with ContextWithRequestID are attached to every
// record logged with a *Context method.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error. Default: info.
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`

	// Format is json or console. Default: json.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Output defaults to os.Stderr.
	Output io.Writer `koanf:"-"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// New returns a slog.Logger writing through a zerolog logger built from cfg.
func New(cfg Config) *slog.Logger {
	return slog.New(NewHandler(NewZerolog(cfg)))
}

// NewZerolog builds the zerolog backend for cfg.
func NewZerolog(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	return zerolog.New(output).Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(NewHandler(zerolog.Nop()))
}
