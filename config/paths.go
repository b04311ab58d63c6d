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

package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
)

const (
	// AppName names the per-user config directories.
	AppName = "xtask"

	// FileName is the config file name inside a config directory.
	FileName = "config.yaml"

	// LocalFileName is the project-local config file.
	LocalFileName = "xtask.yaml"

	// DirPermReadWriteExec is used for created config directories.
	DirPermReadWriteExec = 0o755

	// FilePermReadWrite is used for written config files.
	FilePermReadWrite = 0o644
)

// ErrConfigNotFound is returned when no config file exists.
var ErrConfigNotFound = stderrors.New("config file not found")

// IsNotFoundError reports whether err means no config file exists.
func IsNotFoundError(err error) bool {
	return stderrors.Is(err, ErrConfigNotFound) || stderrors.Is(err, os.ErrNotExist)
}

// getConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func getConfigHome() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return ""
}

// ConfigPaths returns the config files to search, in priority order.
func ConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+AppName, FileName))
	}
	if configHome := getConfigHome(); configHome != "" {
		paths = append(paths, filepath.Join(configHome, AppName, FileName))
	}
	return append(paths, LocalFileName)
}

// FindConfigFile returns the first existing file of ConfigPaths.
func FindConfigFile() (string, error) {
	for _, path := range ConfigPaths() {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// DefaultConfigPath returns where `config init` writes a new config file.
func DefaultConfigPath() (string, error) {
	configHome := getConfigHome()
	if configHome == "" {
		return "", ErrConfigNotFound
	}
	return filepath.Join(configHome, AppName, FileName), nil
}
