package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"omrdiff/internal/comparison"
	"omrdiff/internal/config"
	"omrdiff/internal/history"
	"omrdiff/internal/logging"
	"omrdiff/internal/score"
	"omrdiff/internal/services/musicdiff"
	"omrdiff/internal/workspace"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// warn logs through the configured logger when one is available.
func (c *commandContext) warn(msg string, attrs ...logging.Attr) {
	logger, err := c.ensureLogger()
	if err != nil || logger == nil {
		return
	}
	logger.Warn(msg, logging.Args(attrs...)...)
}

// comparator wires the engine adapter into a Comparator over the configured
// roots.
func (c *commandContext) comparator() (*comparison.Comparator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	engine, err := musicdiff.New(
		cfg.EngineBinary(),
		cfg.Engine.ParserBackend,
		cfg.Engine.TimeoutSeconds,
		musicdiff.WithPDFValidation(cfg.Engine.ValidatePDF),
	)
	if err != nil {
		return nil, err
	}
	return comparison.New(workspace.RootsFromConfig(cfg), comparison.Dependencies{
		Loader:    engine,
		Annotator: score.BindingAnnotator{},
		Engine:    engine,
		Exporter:  engine,
	}, logger)
}

// openHistory returns the run ledger, or nil when history is disabled.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg.History.Path)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
