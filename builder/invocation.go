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
	"context"
	"strings"

	"github.com/cross-rs/xtask/logging"
	shellquote "github.com/kballard/go-shellquote"
	"github.com/moby/buildkit/util/progress/progressui"
)

// Invocation is one container engine command, ready to execute.
type Invocation struct {
	Target     string
	Program    string
	Dir        string
	Dockerfile string
	Tags       []string
	Args       []string
}

// CommandLine renders the invocation as a shell-quoted command line.
func (i Invocation) CommandLine() string {
	return shellquote.Join(append([]string{i.Program}, i.Args...)...)
}

// InvocationBuilder maps a target and its tags to a `buildx build` invocation.
// It performs no I/O.
type InvocationBuilder struct {
	Program   string
	DockerDir string
	Options   BuildOptions
	CI        bool

	// ExtraLabels are appended after the user labels unless a user label
	// already sets the same key.
	ExtraLabels []string
}

// Build returns the invocation for target tagged with tags.
func (b InvocationBuilder) Build(ctx context.Context, target string, tags []string) Invocation {
	opts := b.Options
	image := ImageName(opts.Repository, target)
	dockerfile := DockerfileName(target)

	args := []string{"buildx", "build"}
	if opts.Push {
		args = append(args, "--push")
	} else {
		args = append(args, "--load")
	}

	args = append(args, "--pull")
	if opts.NoCache {
		args = append(args, "--no-cache")
	} else {
		args = append(args, "--cache-from", "type=registry,ref="+image+":"+CacheTag)
	}
	if opts.Push {
		args = append(args, "--cache-to", "type=inline")
	}

	for _, tag := range tags {
		args = append(args, "--tag", tag)
	}

	for _, label := range b.labels() {
		logging.DebugContext(ctx, "Adding label: %s", logging.RedactLabel(label))
		args = append(args, "--label", label)
	}

	args = append(args, "-f", dockerfile)
	args = append(args, "--progress", string(b.progress()))
	args = append(args, ".")

	return Invocation{
		Target:     target,
		Program:    b.Program,
		Dir:        b.DockerDir,
		Dockerfile: dockerfile,
		Tags:       tags,
		Args:       args,
	}
}

func (b InvocationBuilder) progress() progressui.DisplayMode {
	if b.CI || b.Options.Progress == progressui.PlainMode {
		return progressui.PlainMode
	}
	if b.Options.Progress == "" {
		return progressui.AutoMode
	}
	return b.Options.Progress
}

func (b InvocationBuilder) labels() []string {
	labels := b.Options.LabelLines()
	if len(b.ExtraLabels) == 0 {
		return labels
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		key, _, _ := strings.Cut(label, "=")
		seen[key] = true
	}
	for _, label := range b.ExtraLabels {
		key, _, _ := strings.Cut(label, "=")
		if !seen[key] {
			labels = append(labels, label)
		}
	}
	return labels
}
