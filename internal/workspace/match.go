package workspace

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"omrdiff/internal/services"
)

// NearMiss records two names, one per root, that differ only by Unicode
// normalization or letter case. They are not paired.
type NearMiss struct {
	Predicted   string
	GroundTruth string
}

// Matching is the result of scanning both input roots.
type Matching struct {
	// Names is the sorted union of candidate file names from both roots.
	Names []string
	// Paired lists names present in both roots.
	Paired []string
	// PredictedOnly and GroundOnly list names present in one root only.
	PredictedOnly []string
	GroundOnly    []string
	NearMisses    []NearMiss
}

// Match scans both input roots and pairs entries by exact file name. Every
// name seen in either root becomes a candidate so that a missing partner
// surfaces as a failed comparison instead of being skipped silently.
func (r Roots) Match() (Matching, error) {
	predicted, err := listCandidates(r.Predicted)
	if err != nil {
		return Matching{}, err
	}
	ground, err := listCandidates(r.GroundTruth)
	if err != nil {
		return Matching{}, err
	}

	var m Matching
	union := make(map[string]struct{}, len(predicted)+len(ground))
	for name := range predicted {
		union[name] = struct{}{}
		if _, ok := ground[name]; ok {
			m.Paired = append(m.Paired, name)
		} else {
			m.PredictedOnly = append(m.PredictedOnly, name)
		}
	}
	for name := range ground {
		union[name] = struct{}{}
		if _, ok := predicted[name]; !ok {
			m.GroundOnly = append(m.GroundOnly, name)
		}
	}
	for name := range union {
		m.Names = append(m.Names, name)
	}
	sort.Strings(m.Names)
	sort.Strings(m.Paired)
	sort.Strings(m.PredictedOnly)
	sort.Strings(m.GroundOnly)

	m.NearMisses = nearMisses(m.PredictedOnly, m.GroundOnly)
	return m, nil
}

func listCandidates(root string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "match", "scan root",
			fmt.Sprintf("cannot read %s", root), err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}
		names[name] = struct{}{}
	}
	return names, nil
}

func nearMisses(predictedOnly, groundOnly []string) []NearMiss {
	if len(predictedOnly) == 0 || len(groundOnly) == 0 {
		return nil
	}
	fold := cases.Fold()
	key := func(name string) string {
		return fold.String(norm.NFC.String(name))
	}
	byKey := make(map[string]string, len(groundOnly))
	for _, name := range groundOnly {
		byKey[key(name)] = name
	}
	var out []NearMiss
	for _, name := range predictedOnly {
		if partner, ok := byKey[key(name)]; ok {
			out = append(out, NearMiss{Predicted: name, GroundTruth: partner})
		}
	}
	return out
}
