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

// Package workspace locates the Cargo workspace the images are built from
// and reads the metadata stamped into them: the package version, the git
// revision and the source repository.
package workspace

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/cross-rs/xtask/errors"
	"github.com/cross-rs/xtask/logging"
	"github.com/go-git/go-git/v5"
)

const (
	// DefaultManifest is the Cargo manifest file name.
	DefaultManifest = "Cargo.toml"

	// DefaultPackage is the package whose version tags release images.
	DefaultPackage = "cross"

	// DefaultRemote is the git remote used as the image source.
	DefaultRemote = "origin"
)

var (
	// ErrNoWorkspace is returned when no manifest is found above the start directory.
	ErrNoWorkspace = stderrors.New("no Cargo workspace found")

	// ErrNoPackage is returned when the workspace has no member with the package name.
	ErrNoPackage = stderrors.New("package not found in workspace")
)

// Metadata describes the workspace a run builds from.
type Metadata struct {
	Root     string
	Package  string
	Version  string
	Revision string
	Source   string
}

type manifest struct {
	Package   *packageTable   `toml:"package"`
	Workspace *workspaceTable `toml:"workspace"`
}

type packageTable struct {
	Name string `toml:"name"`

	// Version is a string or an inherited {workspace = true} table.
	Version any `toml:"version"`
}

type workspaceTable struct {
	Members []string `toml:"members"`
	Package *struct {
		Version string `toml:"version"`
	} `toml:"package"`
}

// Resolve finds the workspace containing dir and reads the version of pkg.
// Git metadata is best effort: Revision and Source stay empty outside a
// repository.
func Resolve(ctx context.Context, dir, pkg, manifestName string) (*Metadata, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	if manifestName == "" {
		manifestName = DefaultManifest
	}

	start, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap("resolve", dir, err)
	}

	root, err := FindRoot(start, manifestName)
	if err != nil {
		return nil, err
	}
	logging.DebugContext(ctx, "Workspace root: %s", root)

	version, err := packageVersion(root, pkg, manifestName)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{Root: root, Package: pkg, Version: version}
	meta.Revision, meta.Source = gitInfo(ctx, root)
	return meta, nil
}

// FindRoot walks up from dir to the nearest manifest declaring a
// [workspace]. Without one it falls back to the git worktree root when that
// holds a manifest, then to the topmost manifest found.
func FindRoot(dir, manifestName string) (string, error) {
	var topmost string
	for current := dir; ; {
		path := filepath.Join(current, manifestName)
		if m, err := readManifest(path); err == nil {
			if m.Workspace != nil {
				return current, nil
			}
			topmost = current
		} else if !stderrors.Is(err, os.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	if root, ok := gitRoot(dir); ok {
		if _, err := os.Stat(filepath.Join(root, manifestName)); err == nil {
			return root, nil
		}
	}

	if topmost == "" {
		return "", fmt.Errorf("%w above %s", ErrNoWorkspace, dir)
	}
	return topmost, nil
}

func readManifest(path string) (*manifest, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, errors.Wrap("parse", path, err)
	}
	return &m, nil
}

func packageVersion(root, pkg, manifestName string) (string, error) {
	rootManifest, err := readManifest(filepath.Join(root, manifestName))
	if err != nil {
		return "", err
	}

	var inherited string
	if ws := rootManifest.Workspace; ws != nil && ws.Package != nil {
		inherited = ws.Package.Version
	}

	candidates := []string{root}
	if rootManifest.Workspace != nil {
		for _, member := range rootManifest.Workspace.Members {
			matches, err := filepath.Glob(filepath.Join(root, member))
			if err != nil {
				return "", errors.Wrap("expand", "workspace member "+member, err)
			}
			candidates = append(candidates, matches...)
		}
	}

	seen := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if slices.Contains(seen, dir) {
			continue
		}
		seen = append(seen, dir)

		m := rootManifest
		if dir != root {
			if m, err = readManifest(filepath.Join(dir, manifestName)); err != nil {
				if stderrors.Is(err, os.ErrNotExist) {
					continue
				}
				return "", err
			}
		}
		if m.Package == nil || m.Package.Name != pkg {
			continue
		}

		version, err := versionString(m.Package.Version, inherited)
		if err != nil {
			return "", errors.Wrap("read", "version of "+pkg, err)
		}
		if _, err := semver.StrictNewVersion(version); err != nil {
			return "", errors.Wrap("parse", "version "+version+" of "+pkg, err)
		}
		return version, nil
	}

	return "", fmt.Errorf("%w: %s in %s", ErrNoPackage, pkg, root)
}

func versionString(v any, inherited string) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case map[string]any:
		if ws, _ := v["workspace"].(bool); ws {
			if inherited == "" {
				return "", stderrors.New("version inherited from a workspace without [workspace.package] version")
			}
			return inherited, nil
		}
	case nil:
		return "", stderrors.New("package has no version")
	}
	return "", fmt.Errorf("unsupported version value %v", v)
}

func openRepo(dir string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
}

func gitRoot(dir string) (string, bool) {
	repo, err := openRepo(dir)
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", false
	}
	return wt.Filesystem.Root(), true
}

// gitInfo returns the HEAD commit and the credential-free origin URL.
func gitInfo(ctx context.Context, root string) (revision, source string) {
	repo, err := openRepo(root)
	if err != nil {
		logging.DebugContext(ctx, "No git repository at %s: %v", root, err)
		return "", ""
	}

	if head, err := repo.Head(); err == nil {
		revision = head.Hash().String()
	} else {
		logging.DebugContext(ctx, "Failed to read HEAD: %v", err)
	}

	if remote, err := repo.Remote(DefaultRemote); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			source = logging.StripURLCredentials(urls[0])
		}
	}
	return revision, source
}
