package preflight

import (
	"context"

	"omrdiff/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckReadableDirectory("Predicted scores", cfg.Paths.PredictedDir),
		CheckReadableDirectory("Ground truth scores", cfg.Paths.GroundTruthDir),
		CheckWritableTarget("Results directory", cfg.Paths.ResultsDir),
		CheckEngine(ctx, cfg),
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistory(cfg.History.Path))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
