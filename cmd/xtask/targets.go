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

package main

import (
	"fmt"
	"path/filepath"

	"github.com/cross-rs/xtask/logging"
	"github.com/cross-rs/xtask/matrix"
	"github.com/spf13/cobra"
)

var targetsFromCI bool

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the targets build-image would build",
	Long: `List the targets build-image resolves without arguments.

Targets come from docker/Dockerfile.<target>, or from the CI build matrix
with --from-ci. Targets the CI matrix runs tests for are marked.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTargets,
}

func init() {
	targetsCmd.Flags().BoolVar(&targetsFromCI, "from-ci", false, "Take the targets from the CI build matrix")
}

// targetInfo is one row of the targets listing.
type targetInfo struct {
	Target  string `json:"target"`
	HasTest bool   `json:"has_test"`
}

func runTargets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("config not available in context")
	}

	meta, err := resolveWorkspace(ctx, cfg)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(ctx, cfg, meta.Root, nil, targetsFromCI)
	if err != nil {
		return err
	}

	// Test information is best effort outside --from-ci.
	tested := map[string]bool{}
	entries, err := matrix.Load(filepath.Join(meta.Root, cfg.Build.MatrixFile))
	if err != nil {
		logging.DebugContext(ctx, "No build matrix: %v", err)
	}
	for _, e := range entries {
		tested[e.Target] = tested[e.Target] || e.HasTest()
	}

	infos := make([]targetInfo, 0, len(targets))
	for _, t := range targets {
		infos = append(infos, targetInfo{Target: t, HasTest: tested[t]})
	}

	logger := logging.FromContext(ctx)
	if logger.OutputType == logging.JSONOutput {
		logger.Output(infos)
		return nil
	}

	for _, info := range infos {
		if info.HasTest {
			logger.Print(info.Target + " (test)\n")
		} else {
			logger.Print(info.Target + "\n")
		}
	}
	return nil
}
