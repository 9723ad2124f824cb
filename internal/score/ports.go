package score

import "context"

// Loader parses a score file into a Document. Implementations must parse the
// source every time rather than reuse a cached intermediate form.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// Annotator builds the comparison-ready view of a Document. The result must be
// deterministic for a given document and detail level.
type Annotator interface {
	Annotate(doc *Document, detail DetailLevel) (*AnnotatedScore, error)
}

// DiffEngine aligns two annotated scores. The first argument is always the
// predicted score and the second the ground truth; operation kinds such as
// insertions are relative to that order. The returned cost is non-negative,
// and a zero cost with no operations means the scores are equivalent at the
// active detail level.
type DiffEngine interface {
	Diff(ctx context.Context, predicted, ground *AnnotatedScore) ([]Operation, float64, error)
}

// Exporter marks operations onto documents and renders them to PDF without
// regenerating notation.
type Exporter interface {
	MarkDiffs(predicted, ground *Document, ops []Operation)
	Render(ctx context.Context, doc *Document, dest string) error
}

// BindingAnnotator is the Annotator used with engines that annotate sources
// themselves during Diff: it only binds a document to a detail level.
type BindingAnnotator struct{}

// Annotate implements Annotator.
func (BindingAnnotator) Annotate(doc *Document, detail DetailLevel) (*AnnotatedScore, error) {
	return NewAnnotatedScore(doc, detail)
}
