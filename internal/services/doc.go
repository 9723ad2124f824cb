// Package services defines shared utilities consumed by the comparison
// pipeline and the external engine integration.
//
// Key responsibilities:
//   - Context helpers that stamp score identifiers, modes, stages, and run
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. Markers name the failure
//     kinds surfaced to users (invalid identifier, missing file, parse and
//     render failures) and drive the batch controller's decision between
//     recording a failed pair and aborting the run.
//
// Adapters for external tools live in subpackages.
package services
