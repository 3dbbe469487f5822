package drawtree

import (
	"log/slog"

	"github.com/gogpu/drawtree/internal/logging"
)

// SetLogger configures the logger for drawtree and all its sub-packages.
// By default drawtree produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to restore the default silent behavior.
//
// Log levels used by drawtree:
//   - [slog.LevelWarn]: non-fatal issues (bad filter parameters,
//     failed intermediate surface allocations, rejected tree operations,
//     malformed preferences)
//
// Example:
//
//	// Enable warnings to stderr:
//	drawtree.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by drawtree.
// Safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Get()
}
