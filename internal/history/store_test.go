package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"omrdiff/internal/history"
	"omrdiff/internal/testsupport"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int { return &v }

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	first, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	second, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if second.Path() != path {
		t.Fatalf("unexpected path %q", second.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := history.Run{
		ID:              "8d7f6c2e-0000-4000-8000-000000000001",
		Mode:            "multiple",
		Detail:          "NotesAndRests",
		StartedAt:       started,
		FinishedAt:      started.Add(90 * time.Second),
		Succeeded:       1,
		Failed:          1,
		MeanCost:        ptrFloat(3.5),
		TotalOperations: 4,
	}
	results := []history.Result{
		{Score: "b.xml", Status: history.StatusSucceeded, Cost: ptrFloat(3.5), NbDiffs: ptrInt(4), ReportPath: "/r/b_report.json"},
		{Score: "a.xml", Status: history.StatusFailed, ErrorKind: "file_not_found", Error: "file missing"},
	}
	if err := store.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.Mode != "multiple" || got.Succeeded != 1 || got.Failed != 1 {
		t.Fatalf("unexpected run %#v", got)
	}
	if got.MeanCost == nil || *got.MeanCost != 3.5 {
		t.Fatalf("unexpected mean cost %v", got.MeanCost)
	}
	if got.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %s", got.Duration())
	}

	rows, err := store.Results(ctx, run.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(rows) != 2 || rows[0].Score != "b.xml" || rows[1].Score != "a.xml" {
		t.Fatalf("results should keep insertion order: %#v", rows)
	}
	if rows[0].NbDiffs == nil || *rows[0].NbDiffs != 4 || rows[0].Cost == nil {
		t.Fatalf("unexpected success row %#v", rows[0])
	}
	if rows[1].Cost != nil || rows[1].NbDiffs != nil || rows[1].ErrorKind != "file_not_found" {
		t.Fatalf("unexpected failure row %#v", rows[1])
	}
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		start := base.Add(time.Duration(i) * time.Hour)
		if err := store.RecordRun(ctx, history.Run{ID: id, Mode: "single", Detail: "Signatures", Score: "x.xml", StartedAt: start, FinishedAt: start}, nil); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected runs %#v", runs)
	}
	if runs[0].MeanCost != nil || runs[0].Score != "x.xml" {
		t.Fatalf("unexpected run fields %#v", runs[0])
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestListRunsOrdersWithinOneSecond(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	runs := []history.Run{
		{ID: "half-past", Mode: "single", Detail: "Signatures", StartedAt: base.Add(500 * time.Millisecond), FinishedAt: base.Add(time.Second)},
		{ID: "on-the-second", Mode: "single", Detail: "Signatures", StartedAt: base, FinishedAt: base},
	}
	for _, run := range runs {
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun %s: %v", run.ID, err)
		}
	}

	got, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(got) != 2 || got[0].ID != "half-past" || got[1].ID != "on-the-second" {
		t.Fatalf("unexpected order %#v", got)
	}
	if !got[0].StartedAt.Equal(base.Add(500*time.Millisecond)) || !got[1].StartedAt.Equal(base) {
		t.Fatalf("start times not preserved: %v, %v", got[0].StartedAt, got[1].StartedAt)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"abc-111", "abc-222", "def-333"} {
		if err := store.RecordRun(ctx, history.Run{ID: id, Mode: "single", Detail: "Signatures", StartedAt: now, FinishedAt: now}, nil); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	run, err := store.GetRun(ctx, "def")
	if err != nil || run == nil || run.ID != "def-333" {
		t.Fatalf("expected unique prefix match, got %#v err=%v", run, err)
	}
	if _, err := store.GetRun(ctx, "abc"); err == nil {
		t.Fatal("expected ambiguity error")
	}
	run, err = store.GetRun(ctx, "zzz")
	if err != nil || run != nil {
		t.Fatalf("expected no match, got %#v err=%v", run, err)
	}
}

func TestRecordRunRejectsDuplicateID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	run := history.Run{ID: "dup", Mode: "single", Detail: "Signatures", StartedAt: now, FinishedAt: now}
	if err := store.RecordRun(ctx, run, nil); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}
	if err := store.RecordRun(ctx, run, nil); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
	if err := store.RecordRun(ctx, history.Run{}, nil); err == nil {
		t.Fatal("expected missing id to fail")
	}
}
