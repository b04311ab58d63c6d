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
	"slices"
	"strings"

	"go.podman.io/image/v5/docker/reference"
)

// VersionPrefix marks a git tag as a release tag (v1.2.3).
const VersionPrefix = "v"

// Well-known tag labels.
const (
	LatestTag = "latest"
	EdgeTag   = "edge"
	LocalTag  = "local"
	CacheTag  = "main"
)

// DefaultReservedBranches are the merge-queue branches that never move the
// edge tag.
var DefaultReservedBranches = []string{"staging", "trying"}

// RefKind is the kind of version-control ref that triggered the run.
type RefKind int

// Ref kinds. RefNone means no ref context was provided.
const (
	RefNone RefKind = iota
	RefTag
	RefBranch
	RefOther
)

// ParseRefKind maps a ref type string ("tag", "branch") to a RefKind.
func ParseRefKind(kind string) RefKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		return RefNone
	case "tag":
		return RefTag
	case "branch":
		return RefBranch
	default:
		return RefOther
	}
}

func (k RefKind) String() string {
	switch k {
	case RefTag:
		return "tag"
	case RefBranch:
		return "branch"
	case RefOther:
		return "other"
	default:
		return "none"
	}
}

// RefContext is the version-control ref of the run. It is captured once at
// startup and never changes.
type RefContext struct {
	Kind RefKind
	Name string
}

// NewRefContext builds a RefContext from raw ref type and name values.
func NewRefContext(kind, name string) RefContext {
	return RefContext{Kind: ParseRefKind(kind), Name: strings.TrimSpace(name)}
}

func (r RefContext) String() string {
	if r.Kind == RefNone || r.Name == "" {
		return "none"
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Name)
}

// TagDeriver computes the tags of a target's image.
type TagDeriver struct {
	Repository       string
	Version          string
	Override         string
	Push             bool
	ReservedBranches []string
}

// NewTagDeriver returns a TagDeriver for the package version and run options.
func NewTagDeriver(version string, opts BuildOptions, reserved []string) TagDeriver {
	if reserved == nil {
		reserved = DefaultReservedBranches
	}
	return TagDeriver{
		Repository:       opts.Repository,
		Version:          version,
		Override:         opts.Tag,
		Push:             opts.Push,
		ReservedBranches: reserved,
	}
}

// ImageName returns repository/target.
func ImageName(repository, target string) string {
	if repository == "" {
		return target
	}
	return strings.TrimSuffix(repository, "/") + "/" + target
}

// Derive returns the ordered, non-empty tag set for target.
//
// Release tags (v<version>) yield <version> plus latest for stable versions,
// branches yield <branch> plus edge, and anything else yields local. A set
// override replaces the derived tags with a single <override> tag.
func (d TagDeriver) Derive(ref RefContext, target string) ([]string, error) {
	image := ImageName(d.Repository, target)

	var tags []string
	var err error
	switch ref.Kind {
	case RefTag:
		tags, err = d.releaseTags(image, ref.Name)
	case RefBranch:
		tags, err = d.branchTags(image, ref.Name)
	default:
		tags, err = d.localTags(image)
	}
	if err != nil {
		return nil, err
	}

	if d.Override != "" {
		tags = []string{image + ":" + d.Override}
	}

	for _, tag := range tags {
		if _, err := reference.ParseNormalizedNamed(tag); err != nil {
			return nil, &PreconditionError{Reason: fmt.Sprintf("invalid image tag %q", tag), Err: err}
		}
	}
	return tags, nil
}

func (d TagDeriver) releaseTags(image, name string) ([]string, error) {
	version, ok := strings.CutPrefix(name, VersionPrefix)
	if !ok {
		return d.localTags(image)
	}
	if version != d.Version {
		return nil, &VersionMismatchError{Tag: name, Version: d.Version}
	}

	tags := []string{image + ":" + version}
	if !strings.Contains(version, "-") {
		tags = append(tags, image+":"+LatestTag)
	}
	return tags, nil
}

func (d TagDeriver) branchTags(image, branch string) ([]string, error) {
	if branch == "" {
		return d.localTags(image)
	}

	tags := []string{image + ":" + branch}
	if !slices.Contains(d.ReservedBranches, branch) {
		tags = append(tags, image+":"+EdgeTag)
	}
	return tags, nil
}

func (d TagDeriver) localTags(image string) ([]string, error) {
	if d.Push && d.Override == "" {
		return nil, NewPreconditionError("refusing to push without tag or branch, " +
			"specify a repository and tag with `--repository <repository> --tag <tag>`")
	}
	return []string{image + ":" + LocalTag}, nil
}
