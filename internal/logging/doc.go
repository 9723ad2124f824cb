// Package logging assembles structured slog loggers used across omrdiff.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with the
// score identifier, comparison mode, stage, and run ID without threading those
// values by hand. A no-op logger is provided for tests.
package logging
