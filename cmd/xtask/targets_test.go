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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "discovered targets",
			args: []string{"targets"},
			want: armTarget + "\n" + gnuTarget + " (test)\n",
		},
		{
			name: "matrix targets",
			args: []string{"targets", "--from-ci"},
			want: gnuTarget + " (test)\n" + armTarget + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestWorkspace(t)

			stdout, _, err := executeCommand(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestTargetsCommandJSON(t *testing.T) {
	newTestWorkspace(t)

	stdout, _, err := executeCommand(t, "--log-format", "json", "targets")
	require.NoError(t, err)

	var got []targetInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []targetInfo{
		{Target: armTarget},
		{Target: gnuTarget, HasTest: true},
	}, got)
}

func TestTargetsCommandRejectsArgs(t *testing.T) {
	newTestWorkspace(t)

	_, _, err := executeCommand(t, "targets", gnuTarget)
	assert.Error(t, err)
}
