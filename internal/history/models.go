package history

import "time"

// Status is the outcome of one compared pair.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of omrdiff. Score is set for single-mode runs only.
type Run struct {
	ID              string
	Mode            string
	Detail          string
	Score           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Succeeded       int
	Failed          int
	MeanCost        *float64
	TotalOperations int
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result is the ledger row of one compared pair.
type Result struct {
	Score      string
	Status     Status
	Cost       *float64
	NbDiffs    *int
	ReportPath string
	ErrorKind  string
	Error      string
}
