package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"omrdiff/internal/config"
	"omrdiff/internal/services"
)

const (
	reportSuffix       = "_report.json"
	predictedPDFSuffix = "_predicted_diff.pdf"
	groundPDFSuffix    = "_ground_diff.pdf"
)

// Roots holds the three directories a comparison reads from and writes to.
type Roots struct {
	Predicted   string
	GroundTruth string
	Results     string
}

// RootsFromConfig returns the roots configured in cfg.
func RootsFromConfig(cfg *config.Config) Roots {
	return Roots{
		Predicted:   cfg.Paths.PredictedDir,
		GroundTruth: cfg.Paths.GroundTruthDir,
		Results:     cfg.Paths.ResultsDir,
	}
}

// Pair is a validated predicted/ground truth file pair.
type Pair struct {
	Identifier  string
	Stem        string
	Predicted   string
	GroundTruth string
}

// Outputs lists the artifacts written for one comparison.
type Outputs struct {
	Report       string
	PredictedPDF string
	GroundPDF    string
}

// Resolve validates identifier and locates it under both input roots.
func (r Roots) Resolve(identifier string) (Pair, error) {
	cleaned, err := ValidateIdentifier(identifier)
	if err != nil {
		return Pair{}, err
	}
	pair := Pair{
		Identifier:  identifier,
		Stem:        Stem(cleaned),
		Predicted:   filepath.Join(r.Predicted, cleaned),
		GroundTruth: filepath.Join(r.GroundTruth, cleaned),
	}

	info, err := os.Stat(pair.Predicted)
	if err != nil {
		return Pair{}, services.Wrap(services.ErrFileNotFound, "resolve", "predicted",
			fmt.Sprintf("file %s does not exist", pair.Predicted), err)
	}
	if !info.Mode().IsRegular() {
		return Pair{}, services.Wrap(services.ErrNotAFile, "resolve", "predicted",
			fmt.Sprintf("%s is not a file", pair.Predicted), nil)
	}
	if _, err := os.Stat(pair.GroundTruth); err != nil {
		return Pair{}, services.Wrap(services.ErrFileNotFound, "resolve", "ground truth",
			fmt.Sprintf("file %s does not exist", pair.GroundTruth), err)
	}
	return pair, nil
}

// Outputs returns the artifact paths for a stem under the results root.
func (r Roots) Outputs(stem string) Outputs {
	return Outputs{
		Report:       filepath.Join(r.Results, stem+reportSuffix),
		PredictedPDF: filepath.Join(r.Results, stem+predictedPDFSuffix),
		GroundPDF:    filepath.Join(r.Results, stem+groundPDFSuffix),
	}
}

// ValidateIdentifier checks that identifier is a well-formed relative path
// that stays inside the roots, and returns its cleaned form.
func ValidateIdentifier(identifier string) (string, error) {
	invalid := func(reason string) error {
		return services.Wrap(services.ErrInvalidIdentifier, "resolve", "identifier",
			fmt.Sprintf("(%s) is not a valid path: %s", identifier, reason), nil)
	}
	if strings.TrimSpace(identifier) == "" {
		return "", invalid("empty")
	}
	if strings.ContainsRune(identifier, 0) {
		return "", invalid("contains NUL byte")
	}
	if filepath.IsAbs(identifier) || filepath.VolumeName(identifier) != "" {
		return "", invalid("absolute paths are not allowed")
	}
	cleaned := filepath.Clean(identifier)
	if cleaned == "." {
		return "", invalid("names no file")
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", invalid("escapes the score roots")
	}
	return cleaned, nil
}

// Stem returns the file name of identifier without its final extension.
// Names with only a leading dot ("._x") keep their full base name.
func Stem(identifier string) string {
	base := filepath.Base(identifier)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}
