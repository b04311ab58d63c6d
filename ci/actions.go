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

package ci

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cross-rs/xtask/errors"
)

// Actions writes GitHub Actions workflow commands to Out and appends step
// outputs and summaries to the runner's files.
type Actions struct {
	mu  sync.Mutex
	Out io.Writer

	// StepSummaryPath is the GITHUB_STEP_SUMMARY file. When empty the
	// summary is printed to Out.
	StepSummaryPath string

	// OutputPath is the GITHUB_OUTPUT file. When empty outputs use the
	// legacy set-output command.
	OutputPath string
}

// NewActions returns a reporter for env writing commands to out.
func NewActions(env Environment, out io.Writer) *Actions {
	if out == nil {
		out = os.Stdout
	}
	return &Actions{
		Out:             out,
		StepSummaryPath: env.StepSummary,
		OutputPath:      env.Output,
	}
}

// StartGroup opens a collapsible log group.
func (a *Actions) StartGroup(title string) {
	a.command("group", nil, title)
}

// EndGroup closes the current log group.
func (a *Actions) EndGroup() {
	a.command("endgroup", nil, "")
}

// Annotate emits an error annotation attached to file.
func (a *Actions) Annotate(file, title, message string) {
	a.command("error", [][2]string{{"file", file}, {"title", title}}, message)
}

// SetOutput binds a step output.
func (a *Actions) SetOutput(name, value string) error {
	if a.OutputPath == "" {
		a.command("set-output", [][2]string{{"name", name}}, value)
		return nil
	}

	var entry string
	if strings.ContainsAny(value, "\r\n") {
		delim, err := delimiter()
		if err != nil {
			return errors.Wrap("generate", "output delimiter", err)
		}
		entry = fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delim, value, delim)
	} else {
		entry = fmt.Sprintf("%s=%s\n", name, value)
	}
	return appendFile(a.OutputPath, entry)
}

// PublishSummary appends markdown to the job summary.
func (a *Actions) PublishSummary(markdown string) error {
	if a.StepSummaryPath == "" {
		a.mu.Lock()
		defer a.mu.Unlock()
		_, err := io.WriteString(a.Out, markdown)
		return err
	}
	return appendFile(a.StepSummaryPath, markdown)
}

func (a *Actions) command(name string, props [][2]string, message string) {
	var b strings.Builder
	b.WriteString("::")
	b.WriteString(name)
	for i, p := range props {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(EscapeProperty(p[1]))
	}
	b.WriteString("::")
	b.WriteString(EscapeData(message))

	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.Out, b.String())
}

var (
	dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

// EscapeData escapes a workflow command message.
func EscapeData(s string) string {
	return dataEscaper.Replace(s)
}

// EscapeProperty escapes a workflow command property value.
func EscapeProperty(s string) string {
	return propEscaper.Replace(s)
}

func delimiter() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "ghadelimiter_" + hex.EncodeToString(buf), nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap("open", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return errors.Wrap("write", path, err)
	}
	return errors.Wrap("close", path, f.Close())
}
