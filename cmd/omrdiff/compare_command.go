package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"omrdiff/internal/batch"
	"omrdiff/internal/comparison"
	"omrdiff/internal/history"
	"omrdiff/internal/logging"
	"omrdiff/internal/score"
	"omrdiff/internal/services"
)

func runSingle(cmd *cobra.Command, ctx *commandContext, identifier string) error {
	cmp, err := ctx.comparator()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	runCtx := services.WithRequestID(cmd.Context(), runID)
	runCtx = services.WithMode(runCtx, string(score.ModeSingle))
	detail := score.ModeSingle.DetailLevel()

	out := cmd.OutOrStdout()
	// Compare resolves again and reports the failure itself.
	if pair, err := cmp.Roots().Resolve(identifier); err == nil {
		fmt.Fprintf(out, "Comparing input files %s and %s\n", pair.Predicted, pair.GroundTruth)
	}

	started := time.Now()
	outcome, cmpErr := cmp.Compare(runCtx, identifier, comparison.Options{Detail: detail, Render: true})
	recordSingle(runCtx, ctx, logger, runID, identifier, detail, started, outcome, cmpErr)
	if cmpErr != nil {
		return cmpErr
	}

	fmt.Fprintf(out, "Cost %s with %d operations\n", formatCost(outcome.Report.Cost), outcome.Report.NbDiffs)
	fmt.Fprintf(out, "See files (%s and %s)\n", outcome.Outputs.PredictedPDF, outcome.Outputs.GroundPDF)
	fmt.Fprintf(out, "Indicators and operations list is in %s\n", outcome.Outputs.Report)
	return nil
}

func recordSingle(runCtx context.Context, ctx *commandContext, logger *slog.Logger, runID, identifier string, detail score.DetailLevel, started time.Time, outcome comparison.Outcome, cmpErr error) {
	// Rejected identifiers never reached a comparison.
	if services.RunFatal(cmpErr) {
		return
	}
	store, err := ctx.openHistory()
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	run := history.Run{
		ID:         runID,
		Mode:       string(score.ModeSingle),
		Detail:     detail.String(),
		Score:      identifier,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	result := history.Result{Score: identifier}
	if cmpErr != nil {
		run.Failed = 1
		result.Status = history.StatusFailed
		result.ErrorKind = services.Kind(cmpErr)
		result.Error = cmpErr.Error()
	} else {
		cost := outcome.Report.Cost
		nb := outcome.Report.NbDiffs
		run.Succeeded = 1
		run.MeanCost = &cost
		run.TotalOperations = nb
		result.Status = history.StatusSucceeded
		result.Cost = &cost
		result.NbDiffs = &nb
		result.ReportPath = outcome.Outputs.Report
	}
	if err := store.RecordRun(runCtx, run, []history.Result{result}); err != nil {
		logger.Warn("failed to record run history", logging.Error(err))
	}
}

func runMultiple(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cmp, err := ctx.comparator()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	var recorder batch.Recorder
	store, err := ctx.openHistory()
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
	} else if store != nil {
		defer store.Close()
		recorder = store
	}

	controller := batch.NewController(cmp, batch.Options{
		Render:      cfg.Batch.RenderArtifacts,
		SummaryName: cfg.Batch.SummaryName,
	}, recorder, logger)

	summary, err := controller.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderSummaryTable(summary))
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Corpus", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range summaryStatusLines(summary, colorize) {
		fmt.Fprintln(out, line)
	}
	jsonPath, csvPath := batch.SummaryPaths(cfg.Paths.ResultsDir, cfg.Batch.SummaryName)
	fmt.Fprintf(out, "Summary written to %s and %s\n", jsonPath, csvPath)
	return nil
}

func renderSummaryTable(summary *batch.Summary) string {
	headers := []string{"Score", "Status", "Cost", "Diffs", "Error"}
	rows := make([][]string, 0, len(summary.Results))
	for _, res := range summary.Results {
		cost, diffs := "-", "-"
		if res.Report != nil {
			cost = formatCost(res.Report.Cost)
			diffs = strconv.Itoa(res.Report.NbDiffs)
		}
		rows = append(rows, []string{res.Identifier, string(res.Status), cost, diffs, res.ErrorKind})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
}

func summaryStatusLines(summary *batch.Summary, colorize bool) []string {
	lines := []string{
		renderStatusLine("Compared", statusInfo, fmt.Sprintf("%d scores at %s", summary.Total(), summary.Detail), colorize),
	}
	kind := statusOK
	if summary.Failed > 0 {
		kind = statusWarn
	}
	lines = append(lines, renderStatusLine("Results", kind, fmt.Sprintf("%d succeeded, %d failed", summary.Succeeded, summary.Failed), colorize))
	if summary.MeanCost != nil {
		lines = append(lines, renderStatusLine("Mean cost", statusInfo,
			fmt.Sprintf("%s (min %s, max %s)", formatCost(*summary.MeanCost), formatCost(*summary.MinCost), formatCost(*summary.MaxCost)), colorize))
	}
	if summary.TotalOperations > 0 {
		parts := make([]string, 0, len(summary.OpHistogram))
		for _, op := range summary.HistogramKeys() {
			parts = append(parts, fmt.Sprintf("%s=%d", op, summary.OpHistogram[op]))
		}
		lines = append(lines, renderStatusLine("Operations", statusInfo,
			fmt.Sprintf("%d (%s)", summary.TotalOperations, strings.Join(parts, ", ")), colorize))
	}
	if len(summary.PredictedOnly) > 0 {
		lines = append(lines, renderStatusLine("Predicted only", statusWarn, strings.Join(summary.PredictedOnly, ", "), colorize))
	}
	if len(summary.GroundOnly) > 0 {
		lines = append(lines, renderStatusLine("Ground truth only", statusWarn, strings.Join(summary.GroundOnly, ", "), colorize))
	}
	for _, nm := range summary.NearMisses {
		lines = append(lines, renderStatusLine("Name mismatch", statusWarn,
			fmt.Sprintf("%s vs %s", nm.Predicted, nm.GroundTruth), colorize))
	}
	return lines
}

func formatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', -1, 64)
}
