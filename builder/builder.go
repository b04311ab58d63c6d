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

// Package builder implements the multi-target image build engine.
//
// A run flows through five stages:
//
//   - TargetResolver (targets.go): explicit targets, the CI build matrix, or
//     the Dockerfile.<target> files found in the build-definitions directory.
//   - TagDeriver (tags.go): tags for one target from the ref context and the
//     package version.
//   - InvocationBuilder (invocation.go): the `buildx build` command line.
//   - Runner (runner.go): sequential execution with dry-run, push guard and
//     fail-fast handling.
//   - Summarize (summary.go): the markdown job summary and the aggregated
//     build error.
//
// The engine never reads the process environment. CI detection and the ref
// context are captured once by the caller and passed in, and every CI side
// effect goes through the Reporter interface:
//
//	runner := &builder.Runner{
//	    Executor:    engine.NewExecutor(verbose),
//	    Reporter:    ci.NewActions(env, os.Stdout),
//	    Deriver:     deriver,
//	    Invocations: invocations,
//	    Options:     opts,
//	    Ref:         ref,
//	    CI:          env.Actions,
//	}
//	outcomes, err := runner.Run(ctx, targets)
package builder

import "context"

// Executor runs a single build invocation and blocks until it exits.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) error
}

// Reporter receives the CI side effects of a run: folded log groups, inline
// error annotations, named step outputs and the job summary.
type Reporter interface {
	StartGroup(title string)
	EndGroup()
	Annotate(file, title, message string)
	SetOutput(name, value string) error
	PublishSummary(markdown string) error
}

// Outcome is the result of one target that was actually built.
// Err is nil on success and an *InvocationError otherwise.
type Outcome struct {
	Target string
	Err    error
}

// Succeeded reports whether the target built successfully.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
