package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omrdiff/internal/services"
	"omrdiff/internal/testsupport"
	"omrdiff/internal/workspace"
)

func TestResolveValidPair(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	roots := workspace.RootsFromConfig(cfg)
	testsupport.WriteScore(t, roots.Predicted, "foo.xml", "")
	testsupport.WriteScore(t, roots.GroundTruth, "foo.xml", "")

	pair, err := roots.Resolve("foo.xml")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pair.Stem != "foo" {
		t.Fatalf("unexpected stem %q", pair.Stem)
	}
	if pair.Predicted != filepath.Join(roots.Predicted, "foo.xml") || pair.GroundTruth != filepath.Join(roots.GroundTruth, "foo.xml") {
		t.Fatalf("unexpected pair %+v", pair)
	}

	out := roots.Outputs(pair.Stem)
	if out.Report != filepath.Join(roots.Results, "foo_report.json") {
		t.Fatalf("unexpected report path %q", out.Report)
	}
	if out.PredictedPDF != filepath.Join(roots.Results, "foo_predicted_diff.pdf") {
		t.Fatalf("unexpected predicted pdf %q", out.PredictedPDF)
	}
	if out.GroundPDF != filepath.Join(roots.Results, "foo_ground_diff.pdf") {
		t.Fatalf("unexpected ground pdf %q", out.GroundPDF)
	}
}

func TestResolveCheckOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	roots := workspace.RootsFromConfig(cfg)

	// Missing in both roots: the predicted check fires first.
	_, err := roots.Resolve("ghost.xml")
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(roots.Predicted, "ghost.xml")) {
		t.Fatalf("expected predicted path in message, got %v", err)
	}

	// Predicted is a directory.
	if err := os.MkdirAll(filepath.Join(roots.Predicted, "dir.xml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err = roots.Resolve("dir.xml")
	if !errors.Is(err, services.ErrNotAFile) {
		t.Fatalf("expected not a file, got %v", err)
	}

	// Predicted fine, ground truth missing.
	testsupport.WriteScore(t, roots.Predicted, "half.xml", "")
	_, err = roots.Resolve("half.xml")
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(roots.GroundTruth, "half.xml")) {
		t.Fatalf("expected ground truth path in message, got %v", err)
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := map[string]string{
		"foo.xml":       "foo.xml",
		"sub/foo.mxl":   filepath.Join("sub", "foo.mxl"),
		"./foo.krn":     "foo.krn",
		"a/../foo.musx": "foo.musx",
	}
	for in, want := range valid {
		got, err := workspace.ValidateIdentifier(in)
		if err != nil {
			t.Errorf("ValidateIdentifier(%q) unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ValidateIdentifier(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "   ", "/etc/passwd", "..", "../outside.xml", ".", "bad\x00name.xml"} {
		_, err := workspace.ValidateIdentifier(in)
		if !errors.Is(err, services.ErrInvalidIdentifier) {
			t.Errorf("ValidateIdentifier(%q) expected invalid identifier, got %v", in, err)
		}
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"foo.xml":        "foo",
		"sub/foo.xml":    "foo",
		"archive.tar.gz": "archive.tar",
		"noext":          "noext",
		".hidden":        ".hidden",
	}
	for in, want := range cases {
		if got := workspace.Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
