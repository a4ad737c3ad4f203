// Package logging builds the leveled console logger shared by all components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultPrefix is prepended to every log line.
const DefaultPrefix = "todolist"

// Options holds configuration for the logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultOptions returns default options: info level, text, no timestamps.
func DefaultOptions() Options {
	return Options{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    DefaultPrefix,
	}
}

// New creates a logger writing to w with the given options.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// NewFromConfig creates a logger from string configuration values, as read
// from TOML or environment variables.
func NewFromConfig(w io.Writer, level, format string, timestamps, caller bool) *log.Logger {
	opts := DefaultOptions()
	opts.Level = ParseLevel(level)
	opts.Formatter = ParseFormatter(format)
	opts.ReportTimestamp = timestamps
	opts.ReportCaller = caller
	return New(w, opts)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	opts := DefaultOptions()
	opts.Level = log.FatalLevel
	return New(io.Discard, opts)
}

// ParseLevel parses a string log level. Unknown values map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter parses a formatter name (text, json, logfmt). Unknown values map to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Levels and Formats list the names ParseLevel and ParseFormatter accept.
var (
	Levels  = []string{"debug", "info", "warn", "error", "fatal"}
	Formats = []string{"text", "json", "logfmt"}
)

// ValidLevel reports whether level is one ParseLevel understands.
func ValidLevel(level string) bool {
	level = strings.ToLower(strings.TrimSpace(level))
	return level == "warning" || slices.Contains(Levels, level)
}

// ValidFormat reports whether format is one ParseFormatter understands.
func ValidFormat(format string) bool {
	return slices.Contains(Formats, strings.ToLower(strings.TrimSpace(format)))
}

// OpenFile opens path for appending log lines, creating parent directories.
// The TUI logs here so messages do not corrupt the alternate screen.
func OpenFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
