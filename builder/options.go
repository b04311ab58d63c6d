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
	"fmt"
	"strings"

	"github.com/moby/buildkit/util/progress/progressui"
)

// DefaultRepository is the image repository targets are published under.
const DefaultRepository = "ghcr.io/cross-rs"

// ProgressModes lists the progress modes accepted by --progress.
var ProgressModes = []progressui.DisplayMode{
	progressui.AutoMode,
	progressui.PlainMode,
	progressui.TtyMode,
}

// BuildOptions is the immutable configuration of one build-image run.
type BuildOptions struct {
	// Tag replaces every derived tag when set.
	Tag string

	// Repository prefixes every image name (repository/target:tag).
	Repository string

	// Labels holds newline separated key=value image labels.
	Labels string

	// Push pushes images instead of loading them into the local engine.
	Push bool

	// Force allows pushing from outside CI without an explicit tag.
	Force bool

	// DryRun prints the invocations without executing them.
	DryRun bool

	// NoCache disables the registry build cache.
	NoCache bool

	// NoFastFail keeps building remaining targets after a failure.
	NoFastFail bool

	// Progress is the buildx progress display mode.
	Progress progressui.DisplayMode

	// FromCI resolves targets from the CI build matrix.
	FromCI bool

	// OCILabels appends the standard org.opencontainers.image.* labels.
	OCILabels bool
}

// FailFast reports whether the run stops at the first failed target.
func (o BuildOptions) FailFast() bool {
	return !o.NoFastFail
}

// LabelLines returns the non-empty lines of Labels in order.
func (o BuildOptions) LabelLines() []string {
	var labels []string
	for _, line := range strings.Split(o.Labels, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	return labels
}

// ParseProgressMode validates a --progress value.
func ParseProgressMode(mode string) (progressui.DisplayMode, error) {
	for _, m := range ProgressModes {
		if string(m) == mode {
			return m, nil
		}
	}

	valid := make([]string, 0, len(ProgressModes))
	for _, m := range ProgressModes {
		valid = append(valid, string(m))
	}
	return "", fmt.Errorf("invalid progress mode %q (valid: %s)", mode, strings.Join(valid, ", "))
}
