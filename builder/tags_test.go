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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagDeriverDerive(t *testing.T) {
	const repo = "ghcr.io/cross-rs"
	image := repo + "/" + gnuTarget

	tests := []struct {
		name     string
		version  string
		opts     BuildOptions
		ref      RefContext
		want     []string
		wantErr  error
		errMatch string
	}{
		{
			name:    "release tag adds latest",
			version: "0.3.0",
			ref:     NewRefContext("tag", "v0.3.0"),
			want:    []string{image + ":0.3.0", image + ":latest"},
		},
		{
			name:    "pre-release tag omits latest",
			version: "0.3.0-rc.1",
			ref:     NewRefContext("tag", "v0.3.0-rc.1"),
			want:    []string{image + ":0.3.0-rc.1"},
		},
		{
			name:    "release tag must match package version",
			version: "0.3.0",
			ref:     NewRefContext("tag", "v0.2.5"),
			wantErr: ErrVersionMismatch,
		},
		{
			name:    "version mismatch is fatal with an override",
			version: "0.3.0",
			opts:    BuildOptions{Tag: "custom"},
			ref:     NewRefContext("tag", "v0.2.5"),
			wantErr: ErrVersionMismatch,
		},
		{
			name:    "tag without version prefix falls back to local",
			version: "0.3.0",
			ref:     NewRefContext("tag", "release-1"),
			want:    []string{image + ":local"},
		},
		{
			name:    "branch adds edge",
			version: "0.3.0",
			ref:     NewRefContext("branch", "main"),
			want:    []string{image + ":main", image + ":edge"},
		},
		{
			name:    "staging branch omits edge",
			version: "0.3.0",
			ref:     NewRefContext("branch", "staging"),
			want:    []string{image + ":staging"},
		},
		{
			name:    "trying branch omits edge",
			version: "0.3.0",
			ref:     NewRefContext("branch", "trying"),
			want:    []string{image + ":trying"},
		},
		{
			name:    "no ref builds local",
			version: "0.3.0",
			ref:     NewRefContext("", ""),
			want:    []string{image + ":local"},
		},
		{
			name:    "unknown ref kind builds local",
			version: "0.3.0",
			ref:     NewRefContext("pull_request", "42/merge"),
			want:    []string{image + ":local"},
		},
		{
			name:     "push without ref or override is refused",
			version:  "0.3.0",
			opts:     BuildOptions{Push: true},
			ref:      NewRefContext("", ""),
			wantErr:  ErrPrecondition,
			errMatch: "refusing to push without tag or branch",
		},
		{
			name:    "push with override is allowed",
			version: "0.3.0",
			opts:    BuildOptions{Push: true, Tag: "custom"},
			ref:     NewRefContext("", ""),
			want:    []string{image + ":custom"},
		},
		{
			name:    "override replaces branch tags",
			version: "0.3.0",
			opts:    BuildOptions{Tag: "custom"},
			ref:     NewRefContext("branch", "main"),
			want:    []string{image + ":custom"},
		},
		{
			name:    "override replaces release tags",
			version: "0.3.0",
			opts:    BuildOptions{Tag: "custom"},
			ref:     NewRefContext("tag", "v0.3.0"),
			want:    []string{image + ":custom"},
		},
		{
			name:     "branch with slash is not a valid tag",
			version:  "0.3.0",
			ref:      NewRefContext("branch", "feature/thing"),
			wantErr:  ErrPrecondition,
			errMatch: "invalid image tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Repository = repo
			deriver := NewTagDeriver(tt.version, opts, nil)

			got, err := deriver.Derive(tt.ref, gnuTarget)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
				if tt.errMatch != "" {
					assert.Contains(t, err.Error(), tt.errMatch)
				}
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagDeriverCustomReservedBranches(t *testing.T) {
	deriver := NewTagDeriver("1.0.0", BuildOptions{}, []string{"release"})

	got, err := deriver.Derive(NewRefContext("branch", "release"), gnuTarget)
	require.NoError(t, err)
	assert.Equal(t, []string{gnuTarget + ":release"}, got)

	got, err = deriver.Derive(NewRefContext("branch", "staging"), gnuTarget)
	require.NoError(t, err)
	assert.Equal(t, []string{gnuTarget + ":staging", gnuTarget + ":edge"}, got)
}

func TestImageName(t *testing.T) {
	tests := []struct {
		repo   string
		target string
		want   string
	}{
		{"ghcr.io/cross-rs", gnuTarget, "ghcr.io/cross-rs/" + gnuTarget},
		{"ghcr.io/cross-rs/", gnuTarget, "ghcr.io/cross-rs/" + gnuTarget},
		{"", gnuTarget, gnuTarget},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageName(tt.repo, tt.target))
	}
}

func TestNewRefContext(t *testing.T) {
	tests := []struct {
		kind     string
		name     string
		wantKind RefKind
		wantStr  string
	}{
		{"tag", "v1.0.0", RefTag, "tag v1.0.0"},
		{"Branch", " main ", RefBranch, "branch main"},
		{"", "", RefNone, "none"},
		{"pull", "1", RefOther, "other 1"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.name, func(t *testing.T) {
			ref := NewRefContext(tt.kind, tt.name)
			assert.Equal(t, tt.wantKind, ref.Kind)
			assert.Equal(t, tt.wantStr, ref.String())
		})
	}
}
