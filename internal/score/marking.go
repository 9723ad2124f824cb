package score

import "strings"

// OpClass groups operation kinds for display.
type OpClass string

const (
	ClassInsert     OpClass = "insert"
	ClassDelete     OpClass = "delete"
	ClassSubstitute OpClass = "substitute"
	ClassMove       OpClass = "move"
)

const (
	ColorInsert     = "#1a9641"
	ColorDelete     = "#d7191c"
	ColorSubstitute = "#2b83ba"
	ColorMove       = "#fdae61"
)

// ClassifyKind maps an engine operation kind ("noteins", "delbar",
// "pitchnameedit", "voicemove", ...) to its class. Kinds the engine invents
// later fall back to substitute.
func ClassifyKind(kind string) OpClass {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "move"):
		return ClassMove
	case strings.HasPrefix(k, "ins") || strings.HasSuffix(k, "ins"):
		return ClassInsert
	case strings.HasPrefix(k, "del") || strings.HasSuffix(k, "del"):
		return ClassDelete
	default:
		return ClassSubstitute
	}
}

// Color returns the highlight color used for the class.
func (c OpClass) Color() string {
	switch c {
	case ClassInsert:
		return ColorInsert
	case ClassDelete:
		return ColorDelete
	case ClassMove:
		return ColorMove
	default:
		return ColorSubstitute
	}
}

// MarkDiffs attaches one highlight per referenced location: the predicted
// location of each operation goes on predicted, the ground location on
// ground. Both documents are mutated in place.
func MarkDiffs(predicted, ground *Document, ops []Operation) {
	for _, op := range ops {
		class := op.Class()
		if op.Predicted != nil && predicted != nil {
			predicted.Mark(Highlight{Op: op.Kind, Class: class, Color: class.Color(), Location: *op.Predicted})
		}
		if op.Ground != nil && ground != nil {
			ground.Mark(Highlight{Op: op.Kind, Class: class, Color: class.Color(), Location: *op.Ground})
		}
	}
}
