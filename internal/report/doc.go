// Package report aggregates a diff engine's operations into the per-score
// JSON report written next to the rendered artifacts.
//
// The report carries the engine's total cost unchanged, the number of
// operations, and each operation's kind and cost in engine order.
package report
