// Package preflight provides readiness checks for the engine binary and the
// directories omrdiff reads from and writes to.
//
// The checks back the `omrdiff doctor` command. Each returns a Result instead
// of an error so a report can list every problem at once.
package preflight
