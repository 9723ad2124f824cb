package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"omrdiff/internal/comparison"
	"omrdiff/internal/history"
	"omrdiff/internal/logging"
	"omrdiff/internal/score"
	"omrdiff/internal/services"
)

// Recorder stores finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run, results []history.Result) error
}

// Options tune a corpus run.
type Options struct {
	// Render produces the two diff PDFs for every successful pair.
	Render bool
	// SummaryName is the base name of the summary files in the results root.
	SummaryName string
}

// Controller runs corpus comparisons.
type Controller struct {
	cmp      *comparison.Comparator
	opts     Options
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewController wires a Controller. recorder may be nil.
func NewController(cmp *comparison.Comparator, opts Options, recorder Recorder, logger *slog.Logger) *Controller {
	if opts.SummaryName == "" {
		opts.SummaryName = "summary"
	}
	return &Controller{
		cmp:      cmp,
		opts:     opts,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "batch"),
		now:      time.Now,
	}
}

// Detail returns the detail level corpus runs compare at.
func (c *Controller) Detail() score.DetailLevel {
	return score.ModeMultiple.DetailLevel()
}

// Run compares every candidate name. Per-pair failures are recorded in the
// summary; only run-fatal errors, a busy results root, or cancellation end the
// run early, in which case no summary files are written.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	if c.cmp == nil {
		return nil, errors.New("batch: comparator is required")
	}
	roots := c.cmp.Roots()
	detail := c.Detail()

	summary := &Summary{
		RunID:       uuid.NewString(),
		Detail:      detail.String(),
		StartedAt:   c.now(),
		OpHistogram: make(map[string]int),
	}
	ctx = services.WithRequestID(ctx, summary.RunID)
	ctx = services.WithMode(ctx, string(score.ModeMultiple))
	logger := logging.WithContext(ctx, c.logger)

	lock, err := roots.LockResults()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release results lock", logging.Error(err))
		}
	}()

	matching, err := roots.Match()
	if err != nil {
		return nil, err
	}
	summary.PredictedOnly = matching.PredictedOnly
	summary.GroundOnly = matching.GroundOnly
	summary.NearMisses = matching.NearMisses
	for _, nm := range matching.NearMisses {
		logger.Warn("score names differ only by case or normalization",
			logging.String("predicted", nm.Predicted),
			logging.String("ground_truth", nm.GroundTruth),
		)
	}
	logger.Info("corpus run started",
		logging.Int("candidates", len(matching.Names)),
		logging.Int("paired", len(matching.Paired)),
		logging.String("detail", summary.Detail),
	)

	opts := comparison.Options{Detail: detail, Render: c.opts.Render}
	for _, name := range matching.Names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := c.cmp.Compare(ctx, name, opts)
		if err != nil {
			if services.RunFatal(err) {
				logger.Error("corpus run aborted", logging.String(logging.FieldScore, name), logging.Error(err))
				return nil, err
			}
			logger.Warn("comparison failed",
				logging.String(logging.FieldScore, name),
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
			)
			summary.add(ComparisonResult{
				Identifier: name,
				Status:     history.StatusFailed,
				ErrorKind:  services.Kind(err),
				Error:      err.Error(),
			})
			continue
		}
		rep := outcome.Report
		summary.add(ComparisonResult{
			Identifier: name,
			Status:     history.StatusSucceeded,
			Report:     &rep,
			ReportPath: outcome.Outputs.Report,
		})
	}

	summary.FinishedAt = c.now()
	summary.finalize()

	if _, _, err := summary.WriteFiles(roots.Results, c.opts.SummaryName); err != nil {
		return summary, err
	}
	if c.recorder != nil {
		run, rows := summary.HistoryRecords()
		if err := c.recorder.RecordRun(ctx, run, rows); err != nil {
			logger.Warn("failed to record run history", logging.Error(err))
		}
	}

	attrs := []logging.Attr{
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("total_operations", summary.TotalOperations),
		logging.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if summary.MeanCost != nil {
		attrs = append(attrs, logging.Float64("mean_cost", *summary.MeanCost))
	}
	logger.Info("corpus run finished", logging.Args(attrs...)...)
	return summary, nil
}
