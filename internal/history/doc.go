// Package history keeps a SQLite ledger of comparison runs.
//
// Each single or corpus run is stored with its mode, detail level, timing and
// aggregate counts, plus one row per compared pair. The ledger backs the
// `omrdiff history` command and lets evaluation scripts track cost over time
// without re-reading report files.
package history
