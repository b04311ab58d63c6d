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
	"strings"

	"github.com/cross-rs/xtask/logging"
)

const tableHeader = "| Target |\n| ------ |\n"

// RenderSummary renders the markdown job summary for outcomes. Failed targets
// are listed by name only; the error text lives in the aggregated error.
func RenderSummary(outcomes []Outcome) string {
	var b strings.Builder
	b.WriteString("# SUMMARY\n\n")

	var succeeded, failed []string
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded = append(succeeded, o.Target)
		} else {
			failed = append(failed, o.Target)
		}
	}

	if len(succeeded) > 0 {
		b.WriteString("## Success\n\n" + tableHeader)
		for _, target := range succeeded {
			fmt.Fprintf(&b, "| %s |\n", target)
		}
	}

	if len(failed) > 0 {
		b.WriteString("\n## Errors\n\n" + tableHeader)
		for _, target := range failed {
			fmt.Fprintf(&b, "| %s |\n", target)
		}
	}

	return b.String()
}

// Failures returns the failed outcomes in order.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// AggregateError returns an *AggregateBuildError when any outcome failed.
func AggregateError(outcomes []Outcome) error {
	failed := Failures(outcomes)
	if len(failed) == 0 {
		return nil
	}
	return &AggregateBuildError{Failures: failed}
}

// Summarize publishes the job summary when running under CI and returns the
// aggregated build error, if any. The summary is published before the error
// is returned so failed runs still report.
func Summarize(ctx context.Context, reporter Reporter, ci bool, outcomes []Outcome) error {
	summary := RenderSummary(outcomes)
	if ci {
		if err := reporter.PublishSummary(summary); err != nil {
			logging.WarnContext(ctx, "Failed to publish job summary: %v", err)
		}
	} else {
		logging.DebugContext(ctx, "Job summary:\n%s", summary)
	}

	for _, o := range outcomes {
		if o.Succeeded() {
			logging.InfoContext(ctx, "✓ %s", o.Target)
		} else {
			logging.ErrorContext(ctx, "✗ %s", o.Target)
		}
	}

	return AggregateError(outcomes)
}
