package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeBatch()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.PredictedDir) == "" {
		c.Paths.PredictedDir = defaultPredictedDir
	}
	if c.Paths.PredictedDir, err = expandPath(c.Paths.PredictedDir); err != nil {
		return fmt.Errorf("paths.predicted_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.GroundTruthDir) == "" {
		c.Paths.GroundTruthDir = defaultGroundTruthDir
	}
	if c.Paths.GroundTruthDir, err = expandPath(c.Paths.GroundTruthDir); err != nil {
		return fmt.Errorf("paths.ground_truth_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if base, ok := os.LookupEnv("OMRDIFF_STATE_DIR"); ok && strings.TrimSpace(base) != "" {
		c.Paths.StateDir = strings.TrimSpace(base)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if value, ok := os.LookupEnv("OMRDIFF_ENGINE"); ok && strings.TrimSpace(value) != "" {
		c.Engine.Binary = strings.TrimSpace(value)
	}
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	c.Engine.ParserBackend = strings.ToLower(strings.TrimSpace(c.Engine.ParserBackend))
	if c.Engine.ParserBackend == "" {
		c.Engine.ParserBackend = defaultParserBackend
	}
	if c.Engine.TimeoutSeconds < 0 {
		c.Engine.TimeoutSeconds = defaultEngineTimeout
	}
}

func (c *Config) normalizeBatch() {
	c.Batch.SummaryName = strings.TrimSpace(c.Batch.SummaryName)
	if c.Batch.SummaryName == "" {
		c.Batch.SummaryName = defaultSummaryName
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		c.Logging.File = ""
		return nil
	}
	var err error
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
