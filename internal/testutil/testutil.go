// Package testutil provides shared test helpers: loggers, in-process DNS
// servers, and scripted probers.
package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
