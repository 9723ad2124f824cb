package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"omrdiff/internal/config"
	"omrdiff/internal/testsupport"
)

// stubEngine speaks the engine protocol: identical files diff to nothing,
// differing files to one insertion, and sources containing BROKEN fail to
// parse.
const stubEngine = `#!/bin/sh
cmd="$1"
shift
case "$cmd" in
--version)
	echo "stub-engine 1.0"
	;;
parse)
	if grep -q BROKEN "$4"; then
		echo "cannot parse $4" >&2
		exit 1
	fi
	echo '{"format":"musicxml","parts":1,"measures":1,"notes":1}'
	;;
diff)
	if cmp -s "$5" "$6"; then
		echo '{"cost":0,"operations":[]}'
	else
		echo '{"cost":1,"operations":[{"op":"noteins","cost":1,"predicted":null,"ground":{"part":"P1","measure":1}}]}'
	fi
	;;
render)
	out=""
	while [ $# -gt 0 ]; do
		if [ "$1" = "--out" ]; then
			out="$2"
		fi
		shift
	done
	echo "stub pdf" > "$out"
	echo '{"pages":1}'
	;;
*)
	echo "unknown command $cmd" >&2
	exit 2
	;;
esac
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("OMRDIFF_ENGINE", "")
	t.Setenv("OMRDIFF_STATE_DIR", "")

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedEngine(stubEngine)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(testsupport.BaseDir(cfg), "omrdiff.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
