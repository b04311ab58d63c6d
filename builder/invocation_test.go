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
	"strings"
	"testing"
	"time"

	"github.com/moby/buildkit/util/progress/progressui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationBuilderBuild(t *testing.T) {
	const repo = "ghcr.io/cross-rs"
	image := repo + "/" + gnuTarget
	tags := []string{image + ":main", image + ":edge"}

	tests := []struct {
		name    string
		builder InvocationBuilder
		want    []string
	}{
		{
			name: "load with registry cache",
			builder: InvocationBuilder{
				Options: BuildOptions{Repository: repo},
			},
			want: []string{
				"buildx", "build", "--load", "--pull",
				"--cache-from", "type=registry,ref=" + image + ":main",
				"--tag", tags[0], "--tag", tags[1],
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "auto", ".",
			},
		},
		{
			name: "push exports inline cache",
			builder: InvocationBuilder{
				Options: BuildOptions{Repository: repo, Push: true},
			},
			want: []string{
				"buildx", "build", "--push", "--pull",
				"--cache-from", "type=registry,ref=" + image + ":main",
				"--cache-to", "type=inline",
				"--tag", tags[0], "--tag", tags[1],
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "auto", ".",
			},
		},
		{
			name: "no cache skips cache import",
			builder: InvocationBuilder{
				Options: BuildOptions{Repository: repo, NoCache: true},
			},
			want: []string{
				"buildx", "build", "--load", "--pull", "--no-cache",
				"--tag", tags[0], "--tag", tags[1],
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "auto", ".",
			},
		},
		{
			name: "labels in order with blank lines dropped",
			builder: InvocationBuilder{
				Options: BuildOptions{
					Repository: repo,
					NoCache:    true,
					Labels:     "a=1\n\nb=2\r\n",
				},
			},
			want: []string{
				"buildx", "build", "--load", "--pull", "--no-cache",
				"--tag", tags[0], "--tag", tags[1],
				"--label", "a=1", "--label", "b=2",
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "auto", ".",
			},
		},
		{
			name: "CI forces plain progress",
			builder: InvocationBuilder{
				Options: BuildOptions{Repository: repo, NoCache: true, Progress: progressui.TtyMode},
				CI:      true,
			},
			want: []string{
				"buildx", "build", "--load", "--pull", "--no-cache",
				"--tag", tags[0], "--tag", tags[1],
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "plain", ".",
			},
		},
		{
			name: "explicit progress mode outside CI",
			builder: InvocationBuilder{
				Options: BuildOptions{Repository: repo, NoCache: true, Progress: progressui.TtyMode},
			},
			want: []string{
				"buildx", "build", "--load", "--pull", "--no-cache",
				"--tag", tags[0], "--tag", tags[1],
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "tty", ".",
			},
		},
		{
			name: "extra labels never override user labels",
			builder: InvocationBuilder{
				Options: BuildOptions{
					Repository: repo,
					NoCache:    true,
					Labels:     "org.opencontainers.image.version=custom",
				},
				ExtraLabels: []string{
					"org.opencontainers.image.version=0.3.0",
					"org.opencontainers.image.revision=abc123",
				},
			},
			want: []string{
				"buildx", "build", "--load", "--pull", "--no-cache",
				"--tag", tags[0], "--tag", tags[1],
				"--label", "org.opencontainers.image.version=custom",
				"--label", "org.opencontainers.image.revision=abc123",
				"-f", "Dockerfile." + gnuTarget,
				"--progress", "auto", ".",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.builder.Program = "docker"
			tt.builder.DockerDir = "docker"

			inv := tt.builder.Build(context.Background(), gnuTarget, tags)
			assert.Equal(t, tt.want, inv.Args)
			assert.Equal(t, gnuTarget, inv.Target)
			assert.Equal(t, "docker", inv.Dir)
			assert.Equal(t, tags, inv.Tags)
		})
	}
}

func TestInvocationOneTagArgumentPerTag(t *testing.T) {
	for n := 1; n <= 4; n++ {
		tags := make([]string, n)
		for i := range tags {
			tags[i] = gnuTarget + ":t" + string(rune('a'+i))
		}

		inv := InvocationBuilder{Program: "docker"}.Build(context.Background(), gnuTarget, tags)

		var got []string
		for i, arg := range inv.Args {
			if arg == "--tag" {
				require.Less(t, i+1, len(inv.Args))
				got = append(got, inv.Args[i+1])
			}
		}
		assert.Equal(t, tags, got)
	}
}

func TestInvocationLabelsAreRedactedInLogs(t *testing.T) {
	ctx, buf := setupTestContext(t)

	b := InvocationBuilder{
		Program: "docker",
		Options: BuildOptions{Labels: "registry_token=hunter2\nmaintainer=cross"},
	}
	inv := b.Build(ctx, gnuTarget, []string{gnuTarget + ":local"})

	assert.Contains(t, inv.Args, "registry_token=hunter2")
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "maintainer=cross")
}

func TestInvocationCommandLine(t *testing.T) {
	inv := InvocationBuilder{Program: "podman"}.Build(context.Background(), gnuTarget, []string{gnuTarget + ":local"})

	line := inv.CommandLine()
	assert.True(t, strings.HasPrefix(line, "podman buildx build --load --pull"), line)
	assert.True(t, strings.HasSuffix(line, "--progress auto ."), line)
}

func TestOCILabels(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	labels := OCILabels(ImageMetadata{
		Version:  "0.3.0",
		Revision: "abc123",
		Created:  created,
	})

	assert.Equal(t, []string{
		"org.opencontainers.image.version=0.3.0",
		"org.opencontainers.image.revision=abc123",
		"org.opencontainers.image.created=2025-03-01T11:00:00Z",
	}, labels)
	assert.Empty(t, OCILabels(ImageMetadata{}))
}
