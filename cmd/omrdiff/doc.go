// Package main hosts the omrdiff CLI entrypoint and command graph.
//
// The root command compares optical music recognition output against ground
// truth scores: `--action single --score NAME` compares one pair and renders
// annotated PDFs, `--action multiple` compares every pair in the configured
// roots and writes a corpus summary. Subcommands cover configuration
// scaffolding, the run history ledger, and environment checks.
//
// Keep this package lean: comparison logic lives in internal/comparison and
// internal/batch; commands here only resolve configuration, wire adapters,
// and format output.
package main
