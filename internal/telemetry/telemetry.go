// Package telemetry constructs the program's structured logger.
package telemetry

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New builds a charmbracelet/log logger writing to w (os.Stderr in
// normal operation), at the given level name ("debug", "info", "warn",
// "error"; anything else defaults to info).
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
