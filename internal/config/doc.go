// Package config loads, normalizes, and validates omrdiff configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The predicted, ground truth, and results
// roots default to directories relative to the working directory so the tool
// behaves the same when run from a corpus checkout with no config file at all.
//
// The engine section replaces any process-wide parser registration: the parser
// backend is an explicit value handed to the score loader at construction.
package config
