package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"omrdiff/internal/history"
)

type historyRunJSON struct {
	ID              string              `json:"id"`
	Mode            string              `json:"mode"`
	Detail          string              `json:"detail"`
	Score           string              `json:"score,omitempty"`
	StartedAt       string              `json:"started_at"`
	DurationSeconds float64             `json:"duration_seconds"`
	Succeeded       int                 `json:"succeeded"`
	Failed          int                 `json:"failed"`
	MeanCost        *float64            `json:"mean_cost"`
	TotalOperations int                 `json:"total_operations"`
	Results         []historyResultJSON `json:"results,omitempty"`
}

type historyResultJSON struct {
	Score     string   `json:"score"`
	Status    string   `json:"status"`
	Cost      *float64 `json:"cost,omitempty"`
	NbDiffs   *int     `json:"nb_diffs,omitempty"`
	Report    string   `json:"report,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded comparison runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("run history is disabled (history.enabled = false)")
			}
			defer store.Close()

			if strings.TrimSpace(runID) != "" {
				return showRun(cmd, store, runID, asJSON)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				payload := make([]historyRunJSON, 0, len(runs))
				for _, run := range runs {
					payload = append(payload, runToJSON(run, nil))
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			headers := []string{"Run", "Started", "Mode", "Detail", "Score", "OK", "Failed", "Mean Cost"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Mode,
					run.Detail,
					run.Score,
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Failed),
					optionalCost(run.MeanCost),
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
				alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight,
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the per-score results of one run (id or unique prefix)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func showRun(cmd *cobra.Command, store *history.Store, id string, asJSON bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	results, err := store.Results(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, runToJSON(*run, results))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s, %s) started %s, took %s\n",
		run.ID, run.Mode, run.Detail,
		run.StartedAt.Local().Format(time.RFC3339),
		run.Duration().Round(time.Millisecond))
	headers := []string{"Score", "Status", "Cost", "Diffs", "Error"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		diffs := "-"
		if res.NbDiffs != nil {
			diffs = strconv.Itoa(*res.NbDiffs)
		}
		rows = append(rows, []string{res.Score, string(res.Status), optionalCost(res.Cost), diffs, res.ErrorKind})
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
	return nil
}

func runToJSON(run history.Run, results []history.Result) historyRunJSON {
	payload := historyRunJSON{
		ID:              run.ID,
		Mode:            run.Mode,
		Detail:          run.Detail,
		Score:           run.Score,
		StartedAt:       run.StartedAt.UTC().Format(time.RFC3339),
		DurationSeconds: run.Duration().Seconds(),
		Succeeded:       run.Succeeded,
		Failed:          run.Failed,
		MeanCost:        run.MeanCost,
		TotalOperations: run.TotalOperations,
	}
	for _, res := range results {
		payload.Results = append(payload.Results, historyResultJSON{
			Score:     res.Score,
			Status:    string(res.Status),
			Cost:      res.Cost,
			NbDiffs:   res.NbDiffs,
			Report:    res.ReportPath,
			ErrorKind: res.ErrorKind,
			Error:     res.Error,
		})
	}
	return payload
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func optionalCost(cost *float64) string {
	if cost == nil {
		return "-"
	}
	return formatCost(*cost)
}
