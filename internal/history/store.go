package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists runs in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// timeLayout is fixed width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, mode, detail, score, started_at, finished_at, succeeded, failed, mean_cost, total_operations"

// Open creates or opens the ledger at path and applies pending migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores run and its per-pair results in one transaction. Result
// order is preserved.
func (s *Store) RecordRun(ctx context.Context, run Run, results []Result) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("history: run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Mode,
		run.Detail,
		nullableString(run.Score),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Succeeded,
		run.Failed,
		nullableFloat(run.MeanCost),
		run.TotalOperations,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results
		(run_id, position, score, status, cost, nb_diffs, report_path, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range results {
		var nbDiffs any
		if res.NbDiffs != nil {
			nbDiffs = *res.NbDiffs
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			res.Score,
			string(res.Status),
			nullableFloat(res.Cost),
			nbDiffs,
			nullableString(res.ReportPath),
			nullableString(res.ErrorKind),
			nullableString(res.Error),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Score, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id, or a run whose id starts with the given prefix
// when the prefix is unambiguous. It returns nil when nothing matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("history: run id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY (id = ?) DESC LIMIT 2`,
		id, likePrefix(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, nil
	case matches[0].ID == id || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// Results returns the per-pair rows of a run in comparison order.
func (s *Store) Results(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score, status, cost, nb_diffs, report_path, error_kind, error_message
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			res        Result
			status     string
			cost       sql.NullFloat64
			nbDiffs    sql.NullInt64
			reportPath sql.NullString
			errorKind  sql.NullString
			errorMsg   sql.NullString
		)
		if err := rows.Scan(&res.Score, &status, &cost, &nbDiffs, &reportPath, &errorKind, &errorMsg); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Status = Status(status)
		if cost.Valid {
			v := cost.Float64
			res.Cost = &v
		}
		if nbDiffs.Valid {
			v := int(nbDiffs.Int64)
			res.NbDiffs = &v
		}
		res.ReportPath = reportPath.String
		res.ErrorKind = errorKind.String
		res.Error = errorMsg.String
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		scoreID     sql.NullString
		startedRaw  string
		finishedRaw string
		meanCost    sql.NullFloat64
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Mode,
		&run.Detail,
		&scoreID,
		&startedRaw,
		&finishedRaw,
		&run.Succeeded,
		&run.Failed,
		&meanCost,
		&run.TotalOperations,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Score = scoreID.String
	if ts, err := time.Parse(timeLayout, startedRaw); err == nil {
		run.StartedAt = ts
	}
	if ts, err := time.Parse(timeLayout, finishedRaw); err == nil {
		run.FinishedAt = ts
	}
	if meanCost.Valid {
		v := meanCost.Float64
		run.MeanCost = &v
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

// likePrefix drops LIKE wildcards; run ids never contain them.
func likePrefix(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value)
}
