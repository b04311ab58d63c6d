/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cross-rs/xtask/ci"
	"github.com/cross-rs/xtask/engine"
	"github.com/cross-rs/xtask/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const (
	gnuTarget = "x86_64-unknown-linux-gnu"
	armTarget = "aarch64-unknown-linux-gnu"
)

const ciWorkflow = `jobs:
  generate-matrix:
    steps:
      - env:
          matrix: |
            - { target: x86_64-unknown-linux-gnu,  os: ubuntu-latest, run: 1 }
            - { target: x86_64-apple-darwin,       os: macos-12,      run: 1 }
            - { target: aarch64-unknown-linux-gnu, os: ubuntu-latest }
`

// fakeEngine records its arguments to $FAKE_ENGINE_LOG and fails builds
// of the aarch64 target.
const fakeEngine = `#!/bin/sh
echo "$@" >> "$FAKE_ENGINE_LOG"
case "$*" in
  *Dockerfile.aarch64-unknown-linux-gnu*) echo "ERROR: failed to solve" >&2; exit 1 ;;
esac
exit 0
`

// setupTestContext creates a context with a logger suitable for testing.
func setupTestContext(t *testing.T) context.Context {
	t.Helper()
	logger := logging.NewCustomLoggerWithOptions("error", "text", true, false)
	return logging.WithLogger(context.Background(), logger)
}

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// isolateEnv clears CI and config variables and points HOME at an empty
// directory.
func isolateEnv(t *testing.T) {
	t.Helper()
	unsetEnv(t,
		ci.EnvActions, ci.EnvRefType, ci.EnvRefName, ci.EnvLabels,
		ci.EnvStepSummary, ci.EnvOutput, engine.EnvEngine,
		"XTASK_LOG_LEVEL", "XTASK_LOG_FORMAT", "XTASK_BUILD_REPOSITORY",
		"XTASK_BUILD_ENGINE", "XTASK_BUILD_PROGRESS",
	)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}

// newTestWorkspace creates a workspace with two build definitions and a CI
// workflow, and changes into it.
func newTestWorkspace(t *testing.T) string {
	t.Helper()
	isolateEnv(t)

	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml":                     "[package]\nname = \"cross\"\nversion = \"0.3.0\"\n\n[workspace]\nmembers = []\n",
		"docker/Dockerfile." + gnuTarget: "FROM ubuntu:20.04\n",
		"docker/Dockerfile." + armTarget: "FROM ubuntu:20.04\n",
		".github/workflows/ci.yml":       ciWorkflow,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	t.Chdir(root)
	return root
}

// installFakeEngine writes the fake engine script and returns its path and
// the file it logs invocations to.
func installFakeEngine(t *testing.T) (path, logPath string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte(fakeEngine), 0o755))

	logPath = filepath.Join(dir, "invocations.log")
	t.Setenv("FAKE_ENGINE_LOG", logPath)
	return path, logPath
}

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns its stdout
// and stderr.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetErr(os.Stderr)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err = Execute(context.Background())
	return out.String(), errOut.String(), err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var lines []string
	for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		lines = append(lines, string(line))
	}
	return lines
}
