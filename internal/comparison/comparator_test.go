package comparison_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"omrdiff/internal/comparison"
	"omrdiff/internal/logging"
	"omrdiff/internal/report"
	"omrdiff/internal/score"
	"omrdiff/internal/services"
	"omrdiff/internal/testsupport"
	"omrdiff/internal/workspace"
)

type stubLoader struct {
	calls []string
	fail  map[string]error
}

func (l *stubLoader) Load(_ context.Context, path string) (*score.Document, error) {
	l.calls = append(l.calls, path)
	if err := l.fail[path]; err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &score.Document{Path: path, Format: "musicxml", Notes: len(data)}, nil
}

type recordingAnnotator struct {
	details []score.DetailLevel
}

func (a *recordingAnnotator) Annotate(doc *score.Document, detail score.DetailLevel) (*score.AnnotatedScore, error) {
	a.details = append(a.details, detail)
	return score.NewAnnotatedScore(doc, detail)
}

// contentEngine reports one insertion per extra byte in the ground truth and
// one deletion per extra byte in the predicted score.
type contentEngine struct {
	calls [][2]string
	err   error
	cost  *float64
}

func (e *contentEngine) Diff(_ context.Context, predicted, ground *score.AnnotatedScore) ([]score.Operation, float64, error) {
	e.calls = append(e.calls, [2]string{predicted.Path(), ground.Path()})
	if e.err != nil {
		return nil, 0, e.err
	}
	pred, _ := os.ReadFile(predicted.Path())
	gt, _ := os.ReadFile(ground.Path())
	var ops []score.Operation
	for i := len(pred); i < len(gt); i++ {
		ops = append(ops, score.Operation{Kind: "noteins", Cost: 1, Ground: &score.Location{Measure: 1}})
	}
	for i := len(gt); i < len(pred); i++ {
		ops = append(ops, score.Operation{Kind: "notedel", Cost: 1, Predicted: &score.Location{Measure: 1}})
	}
	cost := float64(len(ops))
	if e.cost != nil {
		cost = *e.cost
	}
	return ops, cost, nil
}

type fileExporter struct {
	marked   int
	rendered []string
	failOn   string
}

func (x *fileExporter) MarkDiffs(predicted, ground *score.Document, ops []score.Operation) {
	x.marked++
	score.MarkDiffs(predicted, ground, ops)
}

func (x *fileExporter) Render(_ context.Context, doc *score.Document, dest string) error {
	if x.failOn != "" && strings.HasSuffix(dest, x.failOn) {
		return errors.New("renderer crashed")
	}
	x.rendered = append(x.rendered, dest)
	return os.WriteFile(dest, []byte("%PDF-1.7\n"), 0o644)
}

type fixture struct {
	roots    workspace.Roots
	loader   *stubLoader
	annot    *recordingAnnotator
	engine   *contentEngine
	exporter *fileExporter
	cmp      *comparison.Comparator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &fixture{
		roots:    workspace.RootsFromConfig(cfg),
		loader:   &stubLoader{fail: map[string]error{}},
		annot:    &recordingAnnotator{},
		engine:   &contentEngine{},
		exporter: &fileExporter{},
	}
	cmp, err := comparison.New(f.roots, comparison.Dependencies{
		Loader:    f.loader,
		Annotator: f.annot,
		Engine:    f.engine,
		Exporter:  f.exporter,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.cmp = cmp
	return f
}

func singleOpts() comparison.Options {
	return comparison.Options{Detail: score.ModeSingle.DetailLevel(), Render: true}
}

func readReport(t *testing.T, path string) report.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return r
}

func TestCompareIdenticalScores(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")

	out, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if out.Report.Cost != 0 || out.Report.NbDiffs != 0 {
		t.Fatalf("expected empty diff, got %+v", out.Report)
	}
	onDisk := readReport(t, filepath.Join(f.roots.Results, "foo_report.json"))
	if onDisk.Cost != 0 || onDisk.NbDiffs != 0 || len(onDisk.Operations) != 0 {
		t.Fatalf("unexpected report on disk %+v", onDisk)
	}

	files := testsupport.ListDir(t, f.roots.Results)
	sort.Strings(files)
	want := []string{"foo_ground_diff.pdf", "foo_predicted_diff.pdf", "foo_report.json"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected artifacts %v", files)
	}
	if !out.Rendered || f.exporter.marked != 1 {
		t.Fatalf("expected one marking pass and rendering, got marked=%d rendered=%v", f.exporter.marked, out.Rendered)
	}
}

func TestCompareCallsEngineOnceInPredictedGroundOrder(t *testing.T) {
	f := newFixture(t)
	pred := testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "ab")
	gt := testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "abcd")

	out, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(f.engine.calls) != 1 {
		t.Fatalf("expected exactly one diff call, got %d", len(f.engine.calls))
	}
	if f.engine.calls[0] != [2]string{pred, gt} {
		t.Fatalf("engine called with %v", f.engine.calls[0])
	}
	if out.Report.NbDiffs != len(out.Report.Operations) || out.Report.NbDiffs != 2 {
		t.Fatalf("nb_diffs mismatch: %+v", out.Report)
	}
	for _, entry := range out.Report.Operations {
		if entry.Op != "noteins" {
			t.Fatalf("expected insertions relative to predicted, got %s", entry.Op)
		}
	}
	if len(f.loader.calls) != 2 || f.loader.calls[0] != pred || f.loader.calls[1] != gt {
		t.Fatalf("unexpected load order %v", f.loader.calls)
	}
}

func TestCompareIsNotCommutative(t *testing.T) {
	forward := newFixture(t)
	testsupport.WriteScore(t, forward.roots.Predicted, "x.xml", "a")
	testsupport.WriteScore(t, forward.roots.GroundTruth, "x.xml", "abc")

	swapped := newFixture(t)
	testsupport.WriteScore(t, swapped.roots.Predicted, "x.xml", "abc")
	testsupport.WriteScore(t, swapped.roots.GroundTruth, "x.xml", "a")

	a, err := forward.cmp.Compare(context.Background(), "x.xml", singleOpts())
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	b, err := swapped.cmp.Compare(context.Background(), "x.xml", singleOpts())
	if err != nil {
		t.Fatalf("swapped: %v", err)
	}
	if a.Report.Operations[0].Op == b.Report.Operations[0].Op {
		t.Fatalf("expected swapped inputs to invert operation kinds, both were %s", a.Report.Operations[0].Op)
	}
}

func TestCompareUsesRequestedDetail(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")

	opts := comparison.Options{Detail: score.ModeMultiple.DetailLevel()}
	out, err := f.cmp.Compare(context.Background(), "foo.xml", opts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(f.annot.details) != 2 {
		t.Fatalf("expected two annotations, got %d", len(f.annot.details))
	}
	for _, d := range f.annot.details {
		if d != score.ModeMultiple.DetailLevel() {
			t.Fatalf("unexpected detail %s", d)
		}
	}
	if out.Rendered || len(f.exporter.rendered) != 0 {
		t.Fatal("rendering should be skipped when disabled")
	}
}

func TestCompareMissingPredictedWritesNothing(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")

	_, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
	if files := testsupport.ListDir(t, f.roots.Results); len(files) != 0 {
		t.Fatalf("expected no artifacts, got %v", files)
	}
	if len(f.engine.calls) != 0 {
		t.Fatal("engine must not run for an unresolved pair")
	}
}

func TestCompareParseFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	gt := testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")
	f.loader.fail[gt] = errors.New("unexpected element")

	_, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if files := testsupport.ListDir(t, f.roots.Results); len(files) != 0 {
		t.Fatalf("expected no artifacts, got %v", files)
	}
}

func TestCompareRenderFailureKeepsReport(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")
	f.exporter.failOn = "_ground_diff.pdf"

	_, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(f.roots.Results, "foo_report.json")); statErr != nil {
		t.Fatalf("report should exist before rendering: %v", statErr)
	}
}

func TestCompareRejectsNegativeCost(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")
	negative := -1.0
	f.engine.cost = &negative

	_, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if files := testsupport.ListDir(t, f.roots.Results); len(files) != 0 {
		t.Fatalf("expected no artifacts, got %v", files)
	}
}

func TestCompareKeepsAdapterClassification(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteScore(t, f.roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, f.roots.GroundTruth, "foo.xml", "")
	f.engine.err = services.Wrap(services.ErrParse, "diff", "engine", "bad measure", nil)

	_, err := f.cmp.Compare(context.Background(), "foo.xml", singleOpts())
	if services.Kind(err) != "parse_error" {
		t.Fatalf("expected parse_error kind, got %s (%v)", services.Kind(err), err)
	}
}

func TestNewRequiresAllPorts(t *testing.T) {
	if _, err := comparison.New(workspace.Roots{}, comparison.Dependencies{}, nil); err == nil {
		t.Fatal("expected error for missing ports")
	}
}
