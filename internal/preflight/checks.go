package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"omrdiff/internal/config"
	"omrdiff/internal/deps"
	"omrdiff/internal/history"
)

const engineProbeTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckWritableTarget passes when path is a writable directory, or when it is
// missing but its nearest existing ancestor is writable so it can be created.
func CheckWritableTarget(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckSystemDeps evaluates the executables the configured pipeline needs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Score engine",
			Command:     cfg.EngineBinary(),
			Description: "Required to parse, diff and render scores",
		},
	})
}

// CheckEngine verifies the engine binary resolves on PATH and answers a
// version probe.
func CheckEngine(ctx context.Context, cfg *config.Config) Result {
	const name = "Score engine"

	statuses := CheckSystemDeps(cfg)
	if len(statuses) == 0 || !statuses[0].Available {
		detail := "not found"
		if len(statuses) > 0 {
			detail = statuses[0].Detail
		}
		return Result{Name: name, Detail: detail}
	}
	binary := statuses[0].Path

	probeCtx, cancel := context.WithTimeout(ctx, engineProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, binary, "--version").CombinedOutput() //nolint:gosec
	if err != nil {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: version probe timed out)", binary)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: version probe failed: %v)", binary, err)}
	}
	version := firstLine(string(out))
	if version == "" {
		version = "version unknown"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s, backend %s)", binary, version, cfg.Engine.ParserBackend)}
}

// CheckHistory verifies the run ledger can be opened and migrated.
func CheckHistory(path string) Result {
	const name = "Run history"

	store, err := history.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	_ = store.Close()
	return Result{Name: name, Passed: true, Detail: path}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
