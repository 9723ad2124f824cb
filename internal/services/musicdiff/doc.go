// Package musicdiff drives an external score-analysis engine binary.
//
// The engine exposes three subcommands (parse, diff and render), each of
// which prints a single JSON document on stdout. Client implements the
// score.Loader, score.DiffEngine and score.Exporter ports on top of them and
// classifies failures with the services error markers. Rendered PDFs can be
// checked with pdfcpu before they are reported as written.
package musicdiff
