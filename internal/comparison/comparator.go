package comparison

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"omrdiff/internal/logging"
	"omrdiff/internal/report"
	"omrdiff/internal/score"
	"omrdiff/internal/services"
	"omrdiff/internal/workspace"
)

// Dependencies bundles the ports a Comparator drives.
type Dependencies struct {
	Loader    score.Loader
	Annotator score.Annotator
	Engine    score.DiffEngine
	Exporter  score.Exporter
}

func (d Dependencies) validate() error {
	switch {
	case d.Loader == nil:
		return errors.New("comparison: loader is required")
	case d.Annotator == nil:
		return errors.New("comparison: annotator is required")
	case d.Engine == nil:
		return errors.New("comparison: diff engine is required")
	case d.Exporter == nil:
		return errors.New("comparison: exporter is required")
	}
	return nil
}

// Options tune a single comparison.
type Options struct {
	Detail score.DetailLevel
	// Render controls whether the two diff PDFs are produced.
	Render bool
}

// Outcome describes a completed comparison.
type Outcome struct {
	Pair     workspace.Pair
	Outputs  workspace.Outputs
	Report   report.Report
	Rendered bool
	Duration time.Duration
}

// Comparator orchestrates one comparison at a time.
type Comparator struct {
	roots  workspace.Roots
	deps   Dependencies
	logger *slog.Logger
}

// New constructs a Comparator over roots.
func New(roots workspace.Roots, deps Dependencies, logger *slog.Logger) (*Comparator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Comparator{
		roots:  roots,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "comparison"),
	}, nil
}

// Roots returns the directories the comparator reads from and writes to.
func (c *Comparator) Roots() workspace.Roots {
	return c.roots
}

// Compare runs the full pipeline for identifier.
func (c *Comparator) Compare(ctx context.Context, identifier string, opts Options) (Outcome, error) {
	start := time.Now()
	ctx = services.WithScore(ctx, identifier)
	logger := logging.WithContext(ctx, c.logger)

	if opts.Detail.IsZero() {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "compare", "detail level", "no detail level selected", nil)
	}

	pair, err := c.roots.Resolve(identifier)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Pair: pair, Outputs: c.roots.Outputs(pair.Stem)}
	logger.Debug("resolved score pair",
		logging.String("predicted", pair.Predicted),
		logging.String("ground_truth", pair.GroundTruth),
		logging.String("detail", opts.Detail.String()),
	)

	predDoc, err := c.load(ctx, pair.Predicted)
	if err != nil {
		return outcome, err
	}
	groundDoc, err := c.load(ctx, pair.GroundTruth)
	if err != nil {
		return outcome, err
	}

	predicted, err := c.deps.Annotator.Annotate(predDoc, opts.Detail)
	if err != nil {
		return outcome, mark(err, services.ErrParse, "annotate", pair.Predicted)
	}
	ground, err := c.deps.Annotator.Annotate(groundDoc, opts.Detail)
	if err != nil {
		return outcome, mark(err, services.ErrParse, "annotate", pair.GroundTruth)
	}

	diffCtx := services.WithStage(ctx, "diff")
	ops, cost, err := c.deps.Engine.Diff(diffCtx, predicted, ground)
	if err != nil {
		return outcome, mark(err, services.ErrExternalTool, "diff", pair.Identifier)
	}
	if err := checkDiff(ops, cost); err != nil {
		return outcome, services.Wrap(services.ErrExternalTool, "diff", pair.Identifier, "engine contract violated", err)
	}

	outcome.Report = report.Build(ops, cost)
	if err := report.Write(outcome.Outputs.Report, outcome.Report); err != nil {
		return outcome, err
	}
	logger.Info("comparison report written",
		logging.String("report", outcome.Outputs.Report),
		logging.Float64("cost", cost),
		logging.Int("nb_diffs", outcome.Report.NbDiffs),
	)

	if opts.Render {
		if err := c.render(ctx, predDoc, groundDoc, ops, outcome.Outputs); err != nil {
			return outcome, err
		}
		outcome.Rendered = true
	}

	outcome.Duration = time.Since(start)
	return outcome, nil
}

func (c *Comparator) load(ctx context.Context, path string) (*score.Document, error) {
	doc, err := c.deps.Loader.Load(services.WithStage(ctx, "load"), path)
	if err != nil {
		return nil, mark(err, services.ErrParse, "load", path)
	}
	if doc == nil {
		return nil, services.Wrap(services.ErrParse, "load", path, "loader returned no document", nil)
	}
	return doc, nil
}

func (c *Comparator) render(ctx context.Context, predDoc, groundDoc *score.Document, ops []score.Operation, out workspace.Outputs) error {
	ctx = services.WithStage(ctx, "render")
	c.deps.Exporter.MarkDiffs(predDoc, groundDoc, ops)
	if err := c.deps.Exporter.Render(ctx, predDoc, out.PredictedPDF); err != nil {
		return mark(err, services.ErrRender, "render", out.PredictedPDF)
	}
	if err := c.deps.Exporter.Render(ctx, groundDoc, out.GroundPDF); err != nil {
		return mark(err, services.ErrRender, "render", out.GroundPDF)
	}
	logging.WithContext(ctx, c.logger).Debug("diff artifacts rendered",
		logging.String("predicted_pdf", out.PredictedPDF),
		logging.String("ground_pdf", out.GroundPDF),
	)
	return nil
}

func checkDiff(ops []score.Operation, cost float64) error {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return fmt.Errorf("total cost %v is not a non-negative number", cost)
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// mark tags err with marker unless an adapter already classified it.
func mark(err error, marker error, stage, subject string) error {
	if services.Kind(err) != "internal" {
		return err
	}
	return services.Wrap(marker, stage, subject, "", err)
}
