package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"omrdiff/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose roots live in a unique temp directory.
// The predicted and ground truth roots are created empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.PredictedDir = filepath.Join(base, "predicted")
	cfgVal.Paths.GroundTruthDir = filepath.Join(base, "ground_truth")
	cfgVal.Paths.ResultsDir = filepath.Join(base, "results")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Engine.Binary = "musicdiff-engine"
	cfgVal.Engine.ValidatePDF = false

	for _, dir := range []string{cfgVal.Paths.PredictedDir, cfgVal.Paths.GroundTruthDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistoryDisabled turns off the run ledger.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithBatchRendering toggles rendering during corpus runs.
func WithBatchRendering(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.RenderArtifacts = enabled
	}
}

// WithStubbedEngine writes a stub engine executable and prepends its directory
// to PATH.
func WithStubbedEngine(script string) ConfigOption {
	return func(b *configBuilder) {
		if script == "" {
			script = "#!/bin/sh\nexit 0\n"
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, b.cfg.Engine.Binary)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub engine: %v", err)
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.PredictedDir)
}
