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

// Package ci reads the GitHub Actions environment and writes workflow
// commands, step outputs and the job summary.
package ci

import (
	"os"
	"strings"
)

// Environment variables read from the runner.
const (
	EnvActions     = "GITHUB_ACTIONS"
	EnvRefType     = "GITHUB_REF_TYPE"
	EnvRefName     = "GITHUB_REF_NAME"
	EnvLabels      = "LABELS"
	EnvStepSummary = "GITHUB_STEP_SUMMARY"
	EnvOutput      = "GITHUB_OUTPUT"
)

// Environment is the CI context of a run.
type Environment struct {
	// Actions is true when GITHUB_ACTIONS is set to any value.
	Actions bool

	RefType string
	RefName string

	// Labels is the LABELS fallback for --labels. LabelsSet distinguishes
	// an empty value from an unset one.
	Labels    string
	LabelsSet bool

	StepSummary string
	Output      string
}

// Load reads the environment of the current process.
func Load() Environment {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the environment through lookup.
func LoadFrom(lookup func(string) (string, bool)) Environment {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	_, actions := lookup(EnvActions)
	labels, labelsSet := lookup(EnvLabels)

	return Environment{
		Actions:     actions,
		RefType:     get(EnvRefType),
		RefName:     get(EnvRefName),
		Labels:      labels,
		LabelsSet:   labelsSet,
		StepSummary: get(EnvStepSummary),
		Output:      get(EnvOutput),
	}
}
