package musicdiff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"omrdiff/internal/score"
	"omrdiff/internal/services"
)

var (
	_ score.Loader     = (*Client)(nil)
	_ score.DiffEngine = (*Client)(nil)
	_ score.Exporter   = (*Client)(nil)
)

// pdfcpu otherwise creates a user config directory on first use.
var disablePDFConfig sync.Once

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithPDFValidation toggles pdfcpu validation of rendered artifacts.
func WithPDFValidation(enabled bool) Option {
	return func(c *Client) {
		c.validatePDF = enabled
	}
}

// Client wraps the engine CLI.
type Client struct {
	binary      string
	backend     string
	timeout     time.Duration
	exec        Executor
	validatePDF bool
}

// New constructs a client for binary using the given parser backend. A
// non-positive timeout disables the per-call deadline.
func New(binary, backend string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("musicdiff engine binary required")
	}
	backend = strings.TrimSpace(backend)
	if backend == "" {
		return nil, errors.New("musicdiff parser backend required")
	}
	disablePDFConfig.Do(api.DisableConfigDir)
	client := &Client{
		binary:  binary,
		backend: backend,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type parseResponse struct {
	Format   string `json:"format"`
	Parts    int    `json:"parts"`
	Measures int    `json:"measures"`
	Notes    int    `json:"notes"`
}

type diffResponse struct {
	Cost       *float64          `json:"cost"`
	Operations []score.Operation `json:"operations"`
}

type renderResponse struct {
	Pages int `json:"pages"`
}

// Load parses path with the configured backend. The engine is always asked to
// read the source rather than a cached intermediate file.
func (c *Client) Load(ctx context.Context, path string) (*score.Document, error) {
	args := []string{"parse", "--backend", c.backend, "--force-source", path}
	var resp parseResponse
	if err := c.call(ctx, args, &resp); err != nil {
		return nil, services.Wrap(services.ErrParse, "load", path, "engine could not parse score", err)
	}
	return &score.Document{
		Path:     path,
		Format:   resp.Format,
		Backend:  c.backend,
		Parts:    resp.Parts,
		Measures: resp.Measures,
		Notes:    resp.Notes,
	}, nil
}

// Diff asks the engine for the edit script from predicted to ground.
func (c *Client) Diff(ctx context.Context, predicted, ground *score.AnnotatedScore) ([]score.Operation, float64, error) {
	if predicted == nil || ground == nil {
		return nil, 0, errors.New("musicdiff diff: both scores are required")
	}
	if predicted.Detail() != ground.Detail() {
		return nil, 0, fmt.Errorf("musicdiff diff: detail mismatch %s vs %s", predicted.Detail(), ground.Detail())
	}
	args := []string{
		"diff",
		"--detail", predicted.Detail().String(),
		"--backend", c.backend,
		predicted.Path(),
		ground.Path(),
	}
	var resp diffResponse
	if err := c.call(ctx, args, &resp); err != nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "diff", filepath.Base(predicted.Path()), "engine diff failed", err)
	}
	if resp.Cost == nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "diff", filepath.Base(predicted.Path()), "engine response has no cost", nil)
	}
	cost := *resp.Cost
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return nil, 0, services.Wrap(services.ErrExternalTool, "diff", filepath.Base(predicted.Path()),
			fmt.Sprintf("engine returned invalid cost %v", cost), nil)
	}
	for i, op := range resp.Operations {
		if err := op.Validate(); err != nil {
			return nil, 0, services.Wrap(services.ErrExternalTool, "diff", filepath.Base(predicted.Path()),
				fmt.Sprintf("operation %d rejected", i), err)
		}
	}
	return resp.Operations, cost, nil
}

// MarkDiffs attaches highlights for ops to both documents.
func (c *Client) MarkDiffs(predicted, ground *score.Document, ops []score.Operation) {
	score.MarkDiffs(predicted, ground, ops)
}

// Render writes doc with its highlights to dest as PDF. The engine is told not
// to regenerate notation so the output matches the source layout.
func (c *Client) Render(ctx context.Context, doc *score.Document, dest string) error {
	if doc == nil {
		return services.Wrap(services.ErrRender, "render", dest, "no document", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "create output directory", err)
	}

	marksPath, err := writeMarks(filepath.Dir(dest), doc.Highlights())
	if err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "write marks file", err)
	}
	defer os.Remove(marksPath)

	// The engine writes beside dest; only a checked artifact takes its name.
	tmp, err := reserveTemp(filepath.Dir(dest), filepath.Base(dest))
	if err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "reserve output file", err)
	}
	defer os.Remove(tmp)

	args := []string{
		"render",
		"--no-make-notation",
		"--marks", marksPath,
		"--out", tmp,
		"--backend", c.backend,
		doc.Path,
	}
	var resp renderResponse
	if err := c.call(ctx, args, &resp); err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "engine render failed", err)
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "engine reported success but wrote no file", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrRender, "render", dest, "rendered file is empty", nil)
	}
	if c.validatePDF {
		if err := validatePDF(tmp, resp.Pages); err != nil {
			return services.Wrap(services.ErrRender, "render", dest, "rendered file is not a valid PDF", err)
		}
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "set artifact mode", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return services.Wrap(services.ErrRender, "render", dest, "move rendered file into place", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, args []string, out any) error {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stdout strings.Builder
	if err := c.exec.Run(callCtx, c.binary, args, func(line string) {
		stdout.WriteString(line)
		stdout.WriteByte('\n')
	}); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s %s timed out after %s: %w", c.binary, args[0], c.timeout, err)
		}
		return fmt.Errorf("%s %s: %w", c.binary, args[0], err)
	}

	payload := strings.TrimSpace(stdout.String())
	if payload == "" {
		return fmt.Errorf("%s %s: empty response", c.binary, args[0])
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", c.binary, args[0], err)
	}
	return nil
}

func writeMarks(dir string, highlights []score.Highlight) (string, error) {
	if highlights == nil {
		highlights = []score.Highlight{}
	}
	data, err := json.Marshal(highlights)
	if err != nil {
		return "", err
	}
	file, err := os.CreateTemp(dir, ".marks-*.json")
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

// reserveTemp creates an empty hidden file in dir for the engine to overwrite.
// The .pdf suffix is kept since engines pick the output format from it.
func reserveTemp(dir, base string) (string, error) {
	file, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, filepath.Ext(base))+"-*"+filepath.Ext(base))
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

func validatePDF(path string, expectedPages int) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return err
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("count pages: %w", err)
	}
	if pages == 0 {
		return errors.New("document has no pages")
	}
	if expectedPages > 0 && pages != expectedPages {
		return fmt.Errorf("engine reported %d pages, file has %d", expectedPages, pages)
	}
	return nil
}
