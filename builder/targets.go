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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cross-rs/xtask/matrix"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// DockerfilePrefix is the file name prefix of a target build definition.
	DockerfilePrefix = "Dockerfile."

	// DefaultMatrixOSPrefix selects the matrix rows that build images.
	DefaultMatrixOSPrefix = "ubuntu"

	maxSuggestions  = 3
	maxTypoDistance = 3
)

// MatrixSource provides the CI build matrix.
type MatrixSource interface {
	Entries() ([]matrix.Entry, error)
}

// TargetResolver produces the ordered set of targets for a run.
type TargetResolver struct {
	Matrix    MatrixSource
	DockerDir string
	OSPrefix  string
}

// DockerfileName returns the build definition file name for target.
func DockerfileName(target string) string {
	return DockerfilePrefix + target
}

// Resolve returns explicit unchanged when it is non-empty. Otherwise targets
// come from the CI matrix (fromCI) or from the Dockerfile.<target> files in
// the build-definitions directory, in discovery order.
func (r TargetResolver) Resolve(explicit []string, fromCI bool) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if fromCI {
		return r.fromMatrix()
	}
	return r.Discover()
}

func (r TargetResolver) fromMatrix() ([]string, error) {
	if r.Matrix == nil {
		return nil, NewPreconditionError("no build matrix configured")
	}

	entries, err := r.Matrix.Entries()
	if err != nil {
		return nil, &PreconditionError{Reason: "could not read build matrix", Err: err}
	}

	prefix := r.OSPrefix
	if prefix == "" {
		prefix = DefaultMatrixOSPrefix
	}

	var targets []string
	for _, e := range entries {
		if strings.HasPrefix(e.OS, prefix) {
			targets = append(targets, e.Target)
		}
	}
	return targets, nil
}

// Discover lists the targets that have a build definition file. Entries that
// are not regular files are skipped.
func (r TargetResolver) Discover() ([]string, error) {
	entries, err := os.ReadDir(r.DockerDir)
	if err != nil {
		return nil, &PreconditionError{
			Reason: fmt.Sprintf("could not read build definitions directory %s", r.DockerDir),
			Err:    err,
		}
	}

	var targets []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if target, ok := strings.CutPrefix(e.Name(), DockerfilePrefix); ok && target != "" {
			targets = append(targets, target)
		}
	}
	return targets, nil
}

// Validate checks that every target names a build definition file. Unknown
// names fail with a PreconditionError that suggests the closest known targets.
func (r TargetResolver) Validate(targets []string) error {
	var known []string
	for _, target := range targets {
		if target == "" || target != filepath.Base(target) || strings.ContainsAny(target, `/\:`) {
			return NewPreconditionError("invalid target name %q", target)
		}

		info, err := os.Stat(filepath.Join(r.DockerDir, DockerfileName(target)))
		if err == nil && info.Mode().IsRegular() {
			continue
		}

		if known == nil {
			if known, err = r.Discover(); err != nil {
				return err
			}
		}

		if suggestions := suggest(target, known); len(suggestions) > 0 {
			return NewPreconditionError("invalid target name %q (did you mean %s?)",
				target, strings.Join(suggestions, ", "))
		}
		return NewPreconditionError("invalid target name %q: no %s in %s",
			target, DockerfileName(target), r.DockerDir)
	}
	return nil
}

// suggest ranks known targets by similarity to name. Subsequence matches
// come first; plain typos fall back to edit distance.
func suggest(name string, known []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(name, known)
	sort.Sort(ranks)

	var out []string
	for _, rank := range ranks {
		out = append(out, rank.Target)
	}

	if len(out) == 0 {
		for _, k := range known {
			if fuzzy.LevenshteinDistance(name, k) <= maxTypoDistance {
				out = append(out, k)
			}
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
