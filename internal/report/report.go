package report

import (
	"fmt"

	"omrdiff/internal/fileutil"
	"omrdiff/internal/score"
)

// Entry is one operation as it appears in a report.
type Entry struct {
	Op   string  `json:"op"`
	Cost float64 `json:"cost"`
}

// Report is the per-score comparison result.
type Report struct {
	Cost       float64 `json:"cost"`
	NbDiffs    int     `json:"nb_diffs"`
	Operations []Entry `json:"operations"`
}

// Build converts engine operations into a Report. cost is reported as given
// even when it differs from the sum of operation costs.
func Build(ops []score.Operation, cost float64) Report {
	entries := make([]Entry, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, Entry{Op: op.Kind, Cost: op.Cost})
	}
	return Report{
		Cost:       cost,
		NbDiffs:    len(entries),
		Operations: entries,
	}
}

// OpCounts tallies operations by kind.
func (r Report) OpCounts() map[string]int {
	counts := make(map[string]int, len(r.Operations))
	for _, entry := range r.Operations {
		counts[entry.Op]++
	}
	return counts
}

// Write stores r at path as indented JSON, replacing any previous report.
func Write(path string, r Report) error {
	if r.Operations == nil {
		r.Operations = []Entry{}
	}
	if err := fileutil.WriteJSON(path, r); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
