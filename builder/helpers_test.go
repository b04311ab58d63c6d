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

package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cross-rs/xtask/logging"
)

const (
	gnuTarget  = "x86_64-unknown-linux-gnu"
	armTarget  = "aarch64-unknown-linux-gnu"
	muslTarget = "x86_64-unknown-linux-musl"
)

var errBuildFailed = errors.New("exit status 1")

// recordingExecutor records invocations and fails the targets in failOn.
type recordingExecutor struct {
	calls  []Invocation
	failOn map[string]bool
}

func (e *recordingExecutor) Execute(_ context.Context, inv Invocation) error {
	e.calls = append(e.calls, inv)
	if e.failOn[inv.Target] {
		return errBuildFailed
	}
	return nil
}

func (e *recordingExecutor) targets() []string {
	out := make([]string, 0, len(e.calls))
	for _, c := range e.calls {
		out = append(out, c.Target)
	}
	return out
}

// recordingReporter records every reporter event as a string.
type recordingReporter struct {
	events     []string
	outputs    map[string][]string
	summaries  []string
	summaryErr error
}

func (r *recordingReporter) StartGroup(title string) {
	r.events = append(r.events, "group:"+title)
}

func (r *recordingReporter) EndGroup() {
	r.events = append(r.events, "endgroup")
}

func (r *recordingReporter) Annotate(file, title, message string) {
	r.events = append(r.events, fmt.Sprintf("error:%s:%s:%s", file, title, message))
}

func (r *recordingReporter) SetOutput(name, value string) error {
	if r.outputs == nil {
		r.outputs = map[string][]string{}
	}
	r.outputs[name] = append(r.outputs[name], value)
	return nil
}

func (r *recordingReporter) PublishSummary(markdown string) error {
	r.summaries = append(r.summaries, markdown)
	return r.summaryErr
}

// setupTestContext returns a context whose logger writes to the returned buffer.
func setupTestContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := logging.NewCustomLogger(slog.LevelDebug)
	logger.ConsoleWriter = buf
	logger.OutWriter = buf
	return logging.WithLogger(context.Background(), logger), buf
}

// writeDockerfiles creates an empty Dockerfile.<target> per target in a
// temporary directory and returns the directory.
func writeDockerfiles(t *testing.T, targets ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, target := range targets {
		path := filepath.Join(dir, DockerfileName(target))
		if err := os.WriteFile(path, []byte("FROM scratch\n"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return dir
}
