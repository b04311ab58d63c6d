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

package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cross-rs/xtask/builder"
	"github.com/cross-rs/xtask/logging"
)

const (
	tailBytes = 8 << 10
	tailLines = 20

	// waitDelay bounds how long output pipes stay open after the engine
	// is killed on cancellation.
	waitDelay = 10 * time.Second
)

// ExitError is a failed engine process. Stderr holds the tail of the
// captured error output and is empty when output was streamed.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := e.Err.Error()
	if e.Code > 0 {
		msg = fmt.Sprintf("exit status %d", e.Code)
	}
	if e.Stderr == "" {
		return msg
	}
	return msg + "\n" + e.Stderr
}

func (e *ExitError) Unwrap() error { return e.Err }

// Engine runs invocations with a container engine binary.
type Engine struct {
	// Path is used when an invocation names no program.
	Path string

	// Verbose streams engine output to Stdout and Stderr. Otherwise
	// output is captured and only the stderr tail is kept.
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer

	// Env is appended to the process environment.
	Env []string
}

// New returns an engine for the binary at path.
func New(path string, verbose bool) *Engine {
	return &Engine{
		Path:    path,
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Execute runs inv in its working directory and waits for it to finish.
func (e *Engine) Execute(ctx context.Context, inv builder.Invocation) error {
	program := inv.Program
	if program == "" {
		program = e.Path
	}

	cmd := exec.CommandContext(ctx, program, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.WaitDelay = waitDelay
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	tail := &tailBuffer{max: tailBytes}
	if e.Verbose {
		logging.InfoContext(ctx, "+ %s", inv.CommandLine())
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = tail
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	exitErr := &ExitError{Command: inv.CommandLine(), Code: -1, Err: err}
	var ee *exec.ExitError
	if stderrors.As(err, &ee) {
		exitErr.Code = ee.ExitCode()
	}
	if !e.Verbose {
		exitErr.Stderr = lastLines(tail.String(), tailLines)
	}
	return exitErr
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
