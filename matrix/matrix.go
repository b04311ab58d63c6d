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

// Package matrix reads the CI build matrix from the GitHub Actions workflow.
//
// The matrix lives in the env of a step of the generate-matrix job as an
// embedded YAML list, one entry per target:
//
//	jobs:
//	  generate-matrix:
//	    steps:
//	      - env:
//	          matrix: |
//	            - { target: x86_64-unknown-linux-gnu, os: ubuntu-latest, run: 1 }
package matrix

import (
	"fmt"
	"os"
	"strings"

	"github.com/cross-rs/xtask/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the workflow file holding the matrix, relative to the
	// workspace root.
	DefaultPath = ".github/workflows/ci.yml"

	// JobName is the workflow job that generates the matrix.
	JobName = "generate-matrix"

	// EnvKey is the step env variable holding the matrix.
	EnvKey = "matrix"
)

// Flag is a matrix switch. The workflow writes these as 1, true or yes.
type Flag bool

// UnmarshalYAML accepts numeric and boolean spellings.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "1", "true", "yes", "on":
		*f = true
	case "", "0", "false", "no", "off", "~", "null":
		*f = false
	default:
		return fmt.Errorf("line %d: invalid flag value %q", node.Line, node.Value)
	}
	return nil
}

// Entry is one row of the build matrix.
type Entry struct {
	Target   string `yaml:"target"`
	Sub      string `yaml:"sub,omitempty"`
	OS       string `yaml:"os"`
	CPP      Flag   `yaml:"cpp,omitempty"`
	Dylib    Flag   `yaml:"dylib,omitempty"`
	Std      Flag   `yaml:"std,omitempty"`
	BuildStd Flag   `yaml:"build-std,omitempty"`
	Run      Flag   `yaml:"run,omitempty"`
	Runners  string `yaml:"runners,omitempty"`
	Deploy   Flag   `yaml:"deploy,omitempty"`
}

// HasTest reports whether the target's binaries are run in CI. Bare-metal
// targets are never run.
func (e Entry) HasTest() bool {
	return bool(e.Run) && !strings.Contains(e.Target, "-none-")
}

// RunnerList splits Runners into its space separated names.
func (e Entry) RunnerList() []string {
	return strings.Fields(e.Runners)
}

type workflow struct {
	Jobs map[string]struct {
		Steps []struct {
			Name string            `yaml:"name"`
			Env  map[string]string `yaml:"env"`
		} `yaml:"steps"`
	} `yaml:"jobs"`
}

// Parse extracts the matrix entries from workflow YAML.
func Parse(data []byte) ([]Entry, error) {
	var wf workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, errors.Wrap("parse", "workflow", err)
	}

	job, ok := wf.Jobs[JobName]
	if !ok {
		return nil, fmt.Errorf("workflow has no %s job", JobName)
	}

	for _, step := range job.Steps {
		raw, ok := step.Env[EnvKey]
		if !ok {
			continue
		}

		var entries []Entry
		if err := yaml.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, errors.Wrap("parse", "matrix", err)
		}
		for i, e := range entries {
			if e.Target == "" {
				return nil, fmt.Errorf("matrix entry %d has no target", i)
			}
		}
		return entries, nil
	}

	return nil, fmt.Errorf("job %s has no step with a %s env", JobName, EnvKey)
}

// Load reads and parses the matrix from the workflow file at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap("read", "workflow "+path, err)
	}
	return Parse(data)
}

// File is a matrix source backed by a workflow file. The file is read on
// every call.
type File struct {
	Path string
}

// NewFile returns a matrix source for the workflow at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Entries loads the matrix entries.
func (f *File) Entries() ([]Entry, error) {
	return Load(f.Path)
}
