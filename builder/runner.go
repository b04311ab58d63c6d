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
	"fmt"
	"path"
	"path/filepath"

	"github.com/cross-rs/xtask/logging"
)

// ImageOutput is the step output that carries the first tag of a built target.
const ImageOutput = "image"

// Runner builds targets one after another.
type Runner struct {
	Executor    Executor
	Reporter    Reporter
	Deriver     TagDeriver
	Invocations InvocationBuilder
	Options     BuildOptions
	Ref         RefContext

	// CI is true when running under GitHub Actions.
	CI bool

	// SourceDir is the build-definitions directory relative to the
	// repository root, used in CI annotations. Defaults to "docker".
	SourceDir string
}

// Plan derives tags and builds the invocation of every target. It runs
// before anything executes, so version mismatches and unsafe pushes abort the
// run with no build started.
func (r *Runner) Plan(ctx context.Context, targets []string) ([]Invocation, error) {
	plans := make([]Invocation, 0, len(targets))
	for _, target := range targets {
		tags, err := r.Deriver.Derive(r.Ref, target)
		if err != nil {
			return nil, err
		}
		if len(tags) == 0 {
			return nil, NewPreconditionError("no tags derived for %s", target)
		}

		logging.DebugContext(ctx, "Tags for %s (ref %s): %v", target, r.Ref, tags)
		plans = append(plans, r.Invocations.Build(ctx, target, tags))
	}

	if r.pushGuarded() && !r.Options.DryRun {
		return nil, NewPreconditionError("refusing to push, use --force to override")
	}
	return plans, nil
}

// pushGuarded reports whether a push must be confirmed with --force: pushing
// from outside CI with no explicit tag.
func (r *Runner) pushGuarded() bool {
	return r.Options.Push && r.Options.Tag == "" && !r.Options.Force && !r.CI
}

// Run plans and executes the targets in order. The returned outcomes hold one
// entry per target that actually ran; with fail-fast enabled the run stops
// after the first failure and later targets are absent. A non-nil error is
// fatal and means nothing was built.
func (r *Runner) Run(ctx context.Context, targets []string) ([]Outcome, error) {
	plans, err := r.Plan(ctx, targets)
	if err != nil {
		return nil, err
	}

	grouped := r.CI && len(plans) > 1
	var outcomes []Outcome

	for _, inv := range plans {
		if grouped {
			r.Reporter.StartGroup("Build " + inv.Target)
		}

		if r.Options.DryRun {
			logging.InfoContext(ctx, "+ %s", inv.CommandLine())
			if grouped {
				r.Reporter.EndGroup()
			}
			continue
		}

		outcome := r.execute(ctx, inv, grouped)
		outcomes = append(outcomes, outcome)

		if grouped {
			r.Reporter.EndGroup()
		}

		if !outcome.Succeeded() && r.Options.FailFast() {
			logging.WarnContext(ctx, "Stopping after failed target %s (use --no-fastfail to continue)", inv.Target)
			break
		}
	}

	return outcomes, nil
}

func (r *Runner) sourceDir() string {
	if r.SourceDir == "" {
		return "docker"
	}
	return filepath.ToSlash(r.SourceDir)
}

func (r *Runner) execute(ctx context.Context, inv Invocation, grouped bool) Outcome {
	logging.InfoContext(ctx, "Building %s", inv.Target)
	logging.DebugContext(ctx, "Running in %s: %s", inv.Dir, inv.CommandLine())

	outcome := Outcome{Target: inv.Target}
	if err := r.Executor.Execute(ctx, inv); err != nil {
		outcome.Err = &InvocationError{Target: inv.Target, Err: err}
		logging.ErrorContext(ctx, "Failed to build %s: %v", inv.Target, err)
		if grouped {
			r.Reporter.Annotate(path.Join(r.sourceDir(), inv.Dockerfile), "Build failed", err.Error())
		}
	} else {
		logging.InfoContext(ctx, "Successfully built %s: %s", inv.Target, inv.Tags[0])
	}

	if r.CI {
		if err := r.Reporter.SetOutput(ImageOutput, inv.Tags[0]); err != nil {
			logging.WarnContext(ctx, "%v", fmt.Errorf("failed to set %s output: %w", ImageOutput, err))
		}
	}
	return outcome
}
