package batch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"omrdiff/internal/fileutil"
	"omrdiff/internal/history"
	"omrdiff/internal/report"
	"omrdiff/internal/workspace"
)

// ComparisonResult is the outcome of one pair in a corpus run.
type ComparisonResult struct {
	Identifier string
	Status     history.Status
	Report     *report.Report
	ReportPath string
	ErrorKind  string
	Error      string
}

// Succeeded reports whether the comparison produced a report.
func (r ComparisonResult) Succeeded() bool {
	return r.Status == history.StatusSucceeded
}

// Summary aggregates a corpus run.
type Summary struct {
	RunID           string
	Detail          string
	StartedAt       time.Time
	FinishedAt      time.Time
	Results         []ComparisonResult
	Succeeded       int
	Failed          int
	MeanCost        *float64
	MinCost         *float64
	MaxCost         *float64
	TotalOperations int
	OpHistogram     map[string]int
	PredictedOnly   []string
	GroundOnly      []string
	NearMisses      []workspace.NearMiss
}

// Total returns the number of pairs attempted.
func (s *Summary) Total() int {
	return len(s.Results)
}

func (s *Summary) add(res ComparisonResult) {
	s.Results = append(s.Results, res)
	if !res.Succeeded() {
		s.Failed++
		return
	}
	s.Succeeded++
	if res.Report == nil {
		return
	}
	s.TotalOperations += res.Report.NbDiffs
	for op, n := range res.Report.OpCounts() {
		s.OpHistogram[op] += n
	}
}

// finalize computes cost statistics over successful pairs.
func (s *Summary) finalize() {
	var (
		sum   float64
		count int
	)
	for _, res := range s.Results {
		if !res.Succeeded() || res.Report == nil {
			continue
		}
		cost := res.Report.Cost
		if count == 0 || cost < *s.MinCost {
			s.MinCost = floatPtr(cost)
		}
		if count == 0 || cost > *s.MaxCost {
			s.MaxCost = floatPtr(cost)
		}
		sum += cost
		count++
	}
	if count > 0 {
		s.MeanCost = floatPtr(sum / float64(count))
	}
}

// HistogramKeys returns operation kinds ordered by descending count, then name.
func (s *Summary) HistogramKeys() []string {
	keys := make([]string, 0, len(s.OpHistogram))
	for k := range s.OpHistogram {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := s.OpHistogram[keys[i]], s.OpHistogram[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

type summaryFile struct {
	RunID           string              `json:"run_id"`
	Detail          string              `json:"detail"`
	StartedAt       string              `json:"started_at"`
	FinishedAt      string              `json:"finished_at"`
	Total           int                 `json:"total"`
	Succeeded       int                 `json:"succeeded"`
	Failed          int                 `json:"failed"`
	MeanCost        *float64            `json:"mean_cost"`
	MinCost         *float64            `json:"min_cost"`
	MaxCost         *float64            `json:"max_cost"`
	TotalOperations int                 `json:"total_operations"`
	Operations      map[string]int      `json:"operations_by_kind"`
	PredictedOnly   []string            `json:"predicted_only"`
	GroundOnly      []string            `json:"ground_truth_only"`
	NearMisses      []nearMissFile      `json:"near_misses"`
	Results         []comparisonRowFile `json:"results"`
}

type nearMissFile struct {
	Predicted   string `json:"predicted"`
	GroundTruth string `json:"ground_truth"`
}

type comparisonRowFile struct {
	Score     string   `json:"score"`
	Status    string   `json:"status"`
	Cost      *float64 `json:"cost,omitempty"`
	NbDiffs   *int     `json:"nb_diffs,omitempty"`
	Report    string   `json:"report,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SummaryPaths returns the JSON and CSV locations for name under resultsDir.
func SummaryPaths(resultsDir, name string) (jsonPath, csvPath string) {
	return filepath.Join(resultsDir, name+".json"), filepath.Join(resultsDir, name+".csv")
}

// WriteFiles stores the summary as JSON and CSV under resultsDir.
func (s *Summary) WriteFiles(resultsDir, name string) (string, string, error) {
	jsonPath, csvPath := SummaryPaths(resultsDir, name)

	doc := summaryFile{
		RunID:           s.RunID,
		Detail:          s.Detail,
		StartedAt:       s.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:      s.FinishedAt.UTC().Format(time.RFC3339),
		Total:           s.Total(),
		Succeeded:       s.Succeeded,
		Failed:          s.Failed,
		MeanCost:        s.MeanCost,
		MinCost:         s.MinCost,
		MaxCost:         s.MaxCost,
		TotalOperations: s.TotalOperations,
		Operations:      s.OpHistogram,
		PredictedOnly:   nonNil(s.PredictedOnly),
		GroundOnly:      nonNil(s.GroundOnly),
		NearMisses:      make([]nearMissFile, 0, len(s.NearMisses)),
		Results:         make([]comparisonRowFile, 0, len(s.Results)),
	}
	for _, nm := range s.NearMisses {
		doc.NearMisses = append(doc.NearMisses, nearMissFile{Predicted: nm.Predicted, GroundTruth: nm.GroundTruth})
	}
	for _, res := range s.Results {
		row := comparisonRowFile{
			Score:     res.Identifier,
			Status:    string(res.Status),
			Report:    res.ReportPath,
			ErrorKind: res.ErrorKind,
			Error:     res.Error,
		}
		if res.Report != nil {
			row.Cost = floatPtr(res.Report.Cost)
			n := res.Report.NbDiffs
			row.NbDiffs = &n
		}
		doc.Results = append(doc.Results, row)
	}
	if err := fileutil.WriteJSON(jsonPath, doc); err != nil {
		return "", "", fmt.Errorf("write summary json: %w", err)
	}

	data, err := s.csv()
	if err != nil {
		return "", "", err
	}
	if err := fileutil.WriteFileAtomic(csvPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write summary csv: %w", err)
	}
	return jsonPath, csvPath, nil
}

func (s *Summary) csv() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"score", "status", "cost", "nb_diffs", "error"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range s.Results {
		cost, nb := "", ""
		if res.Report != nil {
			cost = strconv.FormatFloat(res.Report.Cost, 'f', -1, 64)
			nb = strconv.Itoa(res.Report.NbDiffs)
		}
		if err := w.Write([]string{res.Identifier, string(res.Status), cost, nb, res.ErrorKind}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// HistoryRecords converts the summary into ledger rows.
func (s *Summary) HistoryRecords() (history.Run, []history.Result) {
	run := history.Run{
		ID:              s.RunID,
		Mode:            "multiple",
		Detail:          s.Detail,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		Succeeded:       s.Succeeded,
		Failed:          s.Failed,
		MeanCost:        s.MeanCost,
		TotalOperations: s.TotalOperations,
	}
	rows := make([]history.Result, 0, len(s.Results))
	for _, res := range s.Results {
		row := history.Result{
			Score:      res.Identifier,
			Status:     res.Status,
			ReportPath: res.ReportPath,
			ErrorKind:  res.ErrorKind,
			Error:      res.Error,
		}
		if res.Report != nil {
			row.Cost = floatPtr(res.Report.Cost)
			n := res.Report.NbDiffs
			row.NbDiffs = &n
		}
		rows = append(rows, row)
	}
	return run, rows
}

func floatPtr(v float64) *float64 { return &v }

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
