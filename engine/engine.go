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

// Package engine locates the container engine and runs build invocations.
package engine

import (
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/cross-rs/xtask/errors"
)

// EnvEngine selects the container engine when --engine is not given.
const EnvEngine = "CROSS_CONTAINER_ENGINE"

// Known engines, in lookup order.
const (
	Docker = "docker"
	Podman = "podman"
)

// ErrNotFound is returned when no container engine is installed.
var ErrNotFound = stderrors.New("no container engine found, install docker or podman or set " + EnvEngine)

// Resolve returns the path of the container engine. An explicit name wins,
// then CROSS_CONTAINER_ENGINE, then docker, then podman.
func Resolve(name string) (string, error) {
	return resolve(name, os.LookupEnv, exec.LookPath)
}

func resolve(name string, lookupEnv func(string) (string, bool), lookPath func(string) (string, error)) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if v, ok := lookupEnv(EnvEngine); ok {
			name = strings.TrimSpace(v)
		}
	}

	if name != "" {
		path, err := lookPath(name)
		if err != nil {
			return "", errors.Wrap("find", "container engine "+name, err)
		}
		return path, nil
	}

	for _, candidate := range []string{Docker, Podman} {
		if path, err := lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}
