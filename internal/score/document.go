package score

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Location points at an object inside a score.
type Location struct {
	Part     string  `json:"part,omitempty"`
	Measure  int     `json:"measure,omitempty"`
	Offset   float64 `json:"offset,omitempty"`
	ObjectID string  `json:"object_id,omitempty"`
}

func (l Location) String() string {
	var b strings.Builder
	if l.Part != "" {
		b.WriteString(l.Part)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "m%d@%g", l.Measure, l.Offset)
	if l.ObjectID != "" {
		b.WriteString(" #")
		b.WriteString(l.ObjectID)
	}
	return b.String()
}

// Highlight is visual metadata attached to a Document at one location.
type Highlight struct {
	Op       string   `json:"op"`
	Class    OpClass  `json:"class"`
	Color    string   `json:"color"`
	Location Location `json:"location"`
}

// Document is a parsed score. Loaders fill the summary fields; MarkDiffs
// attaches highlights before rendering.
type Document struct {
	Path     string
	Format   string
	Backend  string
	Parts    int
	Measures int
	Notes    int

	highlights []Highlight
}

// Mark attaches a highlight to the document.
func (d *Document) Mark(h Highlight) {
	d.highlights = append(d.highlights, h)
}

// Highlights returns a copy of the attached highlights in marking order.
func (d *Document) Highlights() []Highlight {
	return append([]Highlight(nil), d.highlights...)
}

// AnnotatedScore is a comparison-ready view of a Document at one DetailLevel.
type AnnotatedScore struct {
	doc    *Document
	detail DetailLevel
}

// NewAnnotatedScore binds doc to detail.
func NewAnnotatedScore(doc *Document, detail DetailLevel) (*AnnotatedScore, error) {
	if doc == nil {
		return nil, errors.New("annotate: nil document")
	}
	if detail.IsZero() {
		return nil, errors.New("annotate: empty detail level")
	}
	return &AnnotatedScore{doc: doc, detail: detail}, nil
}

// Path returns the source path of the underlying document.
func (a *AnnotatedScore) Path() string { return a.doc.Path }

// Backend returns the parser backend the document was loaded with.
func (a *AnnotatedScore) Backend() string { return a.doc.Backend }

// Detail returns the detail level the view was built for.
func (a *AnnotatedScore) Detail() DetailLevel { return a.detail }

// Operation is one edit in the script aligning a predicted score to a ground
// truth score. Predicted and Ground locate the objects involved on each side;
// an insertion has no predicted location and a deletion has no ground one.
type Operation struct {
	Kind      string    `json:"op"`
	Cost      float64   `json:"cost"`
	Predicted *Location `json:"predicted,omitempty"`
	Ground    *Location `json:"ground,omitempty"`
}

// Validate checks the engine's guarantees for a single operation.
func (o Operation) Validate() error {
	if strings.TrimSpace(o.Kind) == "" {
		return errors.New("operation without kind")
	}
	if math.IsNaN(o.Cost) || math.IsInf(o.Cost, 0) || o.Cost < 0 {
		return fmt.Errorf("operation %s has invalid cost %v", o.Kind, o.Cost)
	}
	return nil
}

// Class classifies the operation by its kind name.
func (o Operation) Class() OpClass {
	return ClassifyKind(o.Kind)
}
