// Package logging builds the slog logger used across adopr.
//
// Records are rendered by charmbracelet/log so terminal output matches the
// rest of the CLI styling, while callers only depend on log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"thoreinstein.com/adopr/pkg/config"
)

// New returns a logger writing to w. verbose forces the debug level.
func New(cfg config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.WarnLevel
	}
	if verbose {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter(cfg.Format),
		ReportTimestamp: verbose || cfg.Format != "text",
		Prefix:          "adopr",
	})

	return slog.New(handler)
}

// Component returns a child logger tagged with the component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", name)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func formatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
