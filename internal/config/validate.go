package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.PredictedDir == c.Paths.GroundTruthDir {
		return fmt.Errorf("paths.predicted_dir and paths.ground_truth_dir must differ (both %s)", c.Paths.PredictedDir)
	}
	if c.Paths.ResultsDir == c.Paths.PredictedDir || c.Paths.ResultsDir == c.Paths.GroundTruthDir {
		return errors.New("paths.results_dir must not be one of the input roots")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if strings.TrimSpace(c.Engine.Binary) == "" {
		return errors.New("engine.binary must be set")
	}
	switch c.Engine.ParserBackend {
	case "converter21", "music21":
	default:
		return fmt.Errorf("engine.parser_backend: unsupported value %q (want converter21 or music21)", c.Engine.ParserBackend)
	}
	return nil
}

func (c *Config) validateBatch() error {
	name := c.Batch.SummaryName
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("batch.summary_name must be a bare file stem, got %q", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
