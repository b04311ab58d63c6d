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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cross-rs/xtask/builder"
	"github.com/cross-rs/xtask/ci"
	"github.com/cross-rs/xtask/config"
	"github.com/cross-rs/xtask/engine"
	"github.com/cross-rs/xtask/logging"
	"github.com/cross-rs/xtask/matrix"
	"github.com/cross-rs/xtask/workspace"
	"github.com/spf13/cobra"
)

// buildImageOptions holds the build-image flag values.
type buildImageOptions struct {
	tag        string
	repository string
	labels     string
	dryRun     bool
	force      bool
	push       bool
	progress   string
	noCache    bool
	noFastFail bool
	engine     string
	fromCI     bool
	ociLabels  bool
	refType    string
	refName    string
}

var buildImageOpts = &buildImageOptions{}

var buildImageCmd = &cobra.Command{
	Use:     "build-image [targets...]",
	Aliases: []string{"build-docker-image"},
	Short:   "Build the per-target container images",
	Long: `Build one container image per target with the container engine.

Without targets every docker/Dockerfile.<target> is built, or with --from-ci
every Linux target of the CI build matrix.

Tags follow the git ref:
  release tag vX.Y.Z   <repo>/<target>:X.Y.Z and :latest (not for pre-releases)
  branch <name>        <repo>/<target>:<name> and :edge (not for staging/trying)
  anything else        <repo>/<target>:local
--tag replaces the derived tags.`,
	Example: `  # Build two targets locally
  xtask build-image x86_64-unknown-linux-gnu aarch64-unknown-linux-gnu

  # Show what CI would run without building
  xtask build-image --from-ci --dry-run

  # Push a one-off image
  xtask build-image --push --tag test-1 x86_64-unknown-linux-gnu`,
	SilenceUsage: true,
	RunE:         runBuildImage,
}

func init() {
	flags := buildImageCmd.Flags()
	flags.StringVar(&buildImageOpts.tag, "tag", "", "Tag every image with this tag instead of the derived tags")
	flags.StringVar(&buildImageOpts.repository, "repository", builder.DefaultRepository, "Image repository")
	flags.StringVar(&buildImageOpts.labels, "labels", "", "Newline separated key=value image labels (env LABELS)")
	flags.BoolVar(&buildImageOpts.dryRun, "dry-run", false, "Print the engine commands without running them")
	flags.BoolVar(&buildImageOpts.force, "force", false, "Allow pushing from outside CI without --tag")
	flags.BoolVarP(&buildImageOpts.push, "push", "p", false, "Push the images instead of loading them")
	flags.StringVar(&buildImageOpts.progress, "progress", "auto", "Build progress output (auto, plain, tty)")
	flags.BoolVar(&buildImageOpts.noCache, "no-cache", false, "Do not use the registry build cache")
	flags.BoolVar(&buildImageOpts.noFastFail, "no-fastfail", false, "Keep building after a target fails")
	flags.StringVar(&buildImageOpts.engine, "engine", "", "Container engine (default $"+engine.EnvEngine+", docker, podman)")
	flags.BoolVar(&buildImageOpts.fromCI, "from-ci", false, "Take the targets from the CI build matrix")
	flags.BoolVar(&buildImageOpts.ociLabels, "oci-labels", false, "Add org.opencontainers.image.* labels")
	flags.StringVar(&buildImageOpts.refType, "ref-type", "", "Git ref type (env "+ci.EnvRefType+")")
	flags.StringVar(&buildImageOpts.refName, "ref-name", "", "Git ref name (env "+ci.EnvRefName+")")
	_ = flags.MarkHidden("ref-type")
	_ = flags.MarkHidden("ref-name")
}

func runBuildImage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("config not available in context")
	}
	env := ci.Load()

	opts, err := buildImageOpts.toBuildOptions(cmd, cfg, env)
	if err != nil {
		return err
	}

	meta, err := resolveWorkspace(ctx, cfg)
	if err != nil {
		return err
	}

	program, err := resolveEngine(ctx, cfg.Build.Engine, opts.DryRun)
	if err != nil {
		return err
	}

	dockerDir := filepath.Join(meta.Root, cfg.Build.DockerDir)
	targets, err := resolveTargets(ctx, cfg, meta.Root, args, opts.FromCI)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		logging.WarnContext(ctx, "No targets to build")
	}

	var extra []string
	if opts.OCILabels {
		extra = builder.OCILabels(builder.ImageMetadata{
			Version:  meta.Version,
			Revision: meta.Revision,
			Source:   meta.Source,
			Authors:  workspace.AuthorReader{}.Author(ctx, meta.Root),
			Created:  time.Now(),
		})
	}

	refType, refName := buildImageOpts.refType, buildImageOpts.refName
	if !cmd.Flags().Changed("ref-type") {
		refType = env.RefType
	}
	if !cmd.Flags().Changed("ref-name") {
		refName = env.RefName
	}

	executor := engine.New(program, logging.FromContext(ctx).IsVerbose())
	executor.Stdout = cmd.OutOrStdout()
	executor.Stderr = cmd.ErrOrStderr()

	reporter := ci.NewActions(env, cmd.OutOrStdout())
	runner := &builder.Runner{
		Executor: executor,
		Reporter: reporter,
		Deriver:  builder.NewTagDeriver(meta.Version, opts, cfg.Build.ReservedBranches),
		Invocations: builder.InvocationBuilder{
			Program:     program,
			DockerDir:   dockerDir,
			Options:     opts,
			CI:          env.Actions,
			ExtraLabels: extra,
		},
		Options:   opts,
		Ref:       builder.NewRefContext(refType, refName),
		CI:        env.Actions,
		SourceDir: cfg.Build.DockerDir,
	}

	logging.InfoContext(ctx, "Building %d target(s) for %s %s (ref %s)", len(targets), meta.Package, meta.Version, runner.Ref)
	outcomes, err := runner.Run(ctx, targets)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}
	return builder.Summarize(ctx, reporter, env.Actions, outcomes)
}

// toBuildOptions assembles the run options. Repository and progress come
// from the merged config so the config file and XTASK_* variables apply.
func (o *buildImageOptions) toBuildOptions(cmd *cobra.Command, cfg *config.Config, env ci.Environment) (builder.BuildOptions, error) {
	progress, err := builder.ParseProgressMode(cfg.Build.Progress)
	if err != nil {
		return builder.BuildOptions{}, err
	}

	labels := o.labels
	if !cmd.Flags().Changed("labels") && env.LabelsSet {
		labels = env.Labels
	}

	return builder.BuildOptions{
		Tag:        o.tag,
		Repository: cfg.Build.Repository,
		Labels:     labels,
		Push:       o.push,
		Force:      o.force,
		DryRun:     o.dryRun,
		NoCache:    o.noCache,
		NoFastFail: o.noFastFail,
		Progress:   progress,
		FromCI:     o.fromCI,
		OCILabels:  o.ociLabels,
	}, nil
}

func resolveWorkspace(ctx context.Context, cfg *config.Config) (*workspace.Metadata, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	meta, err := workspace.Resolve(ctx, dir, cfg.Build.Package, cfg.Build.Manifest)
	if err != nil {
		return nil, &builder.PreconditionError{
			Reason: fmt.Sprintf("could not find %s workspace and its current version", cfg.Build.Package),
			Err:    err,
		}
	}
	return meta, nil
}

// resolveEngine finds the container engine. A dry run never executes it,
// so a missing engine only warns there.
func resolveEngine(ctx context.Context, name string, dryRun bool) (string, error) {
	path, err := engine.Resolve(name)
	if err == nil {
		logging.DebugContext(ctx, "Using container engine %s", path)
		return path, nil
	}
	if !dryRun {
		return "", err
	}

	if name == "" {
		name = engine.Docker
	}
	logging.WarnContext(ctx, "%v; printing commands for %s", err, name)
	return name, nil
}

func resolveTargets(ctx context.Context, cfg *config.Config, root string, explicit []string, fromCI bool) ([]string, error) {
	resolver := builder.TargetResolver{
		Matrix:    matrix.NewFile(filepath.Join(root, cfg.Build.MatrixFile)),
		DockerDir: filepath.Join(root, cfg.Build.DockerDir),
		OSPrefix:  cfg.Build.MatrixOSPrefix,
	}

	targets, err := resolver.Resolve(explicit, fromCI)
	if err != nil {
		return nil, err
	}
	if len(explicit) > 0 {
		if err := resolver.Validate(targets); err != nil {
			return nil, err
		}
	}

	logging.DebugContext(ctx, "Resolved targets: %v", targets)
	return targets, nil
}
