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

// Package config loads the xtask configuration. Values resolve in order:
// CLI flags, XTASK_* environment variables, the config file, then defaults.
package config

import (
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "XTASK"

// Config represents the xtask configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log" yaml:"log" json:"log"`
	Build BuildConfig `mapstructure:"build" yaml:"build" json:"build"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `mapstructure:"format" yaml:"format" json:"format" jsonschema:"enum=text,enum=color,enum=json,default=color"`
}

// BuildConfig holds image build configuration
type BuildConfig struct {
	// Repository prefixes every image name.
	Repository string `mapstructure:"repository" yaml:"repository" json:"repository" jsonschema:"default=ghcr.io/cross-rs"`

	// Engine names the container engine binary. Empty selects
	// CROSS_CONTAINER_ENGINE, then docker, then podman.
	Engine string `mapstructure:"engine" yaml:"engine" json:"engine,omitempty"`

	Progress string `mapstructure:"progress" yaml:"progress" json:"progress" jsonschema:"enum=auto,enum=plain,enum=tty,default=auto"`

	// DockerDir is the build-definitions directory, relative to the
	// workspace root.
	DockerDir string `mapstructure:"docker_dir" yaml:"docker_dir" json:"docker_dir" jsonschema:"default=docker"`

	// Manifest is the Cargo manifest file name.
	Manifest string `mapstructure:"manifest" yaml:"manifest" json:"manifest" jsonschema:"default=Cargo.toml"`

	// Package is the workspace package whose version tags releases.
	Package string `mapstructure:"package" yaml:"package" json:"package" jsonschema:"default=cross"`

	// MatrixFile is the CI workflow holding the build matrix, relative to
	// the workspace root.
	MatrixFile string `mapstructure:"matrix_file" yaml:"matrix_file" json:"matrix_file" jsonschema:"default=.github/workflows/ci.yml"`

	MatrixOSPrefix string `mapstructure:"matrix_os_prefix" yaml:"matrix_os_prefix" json:"matrix_os_prefix" jsonschema:"default=ubuntu"`

	// ReservedBranches never receive the edge tag.
	ReservedBranches []string `mapstructure:"reserved_branches" yaml:"reserved_branches" json:"reserved_branches"`
}

// Load reads the first config file found in ConfigPaths. A missing file is
// not an error; defaults and environment variables still apply.
func Load() (*Config, error) {
	path, err := FindConfigFile()
	if err != nil {
		if !IsNotFoundError(err) {
			return nil, err
		}
		return load(newViper())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return load(v)
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg, err := load(newViper())
	if err != nil {
		return &Config{}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// XTASK_BUILD_REPOSITORY, XTASK_LOG_LEVEL, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	bindEnvVars(v)
	return v
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")

	v.SetDefault("build.repository", "ghcr.io/cross-rs")
	v.SetDefault("build.engine", "")
	v.SetDefault("build.progress", "auto")
	v.SetDefault("build.docker_dir", "docker")
	v.SetDefault("build.manifest", "Cargo.toml")
	v.SetDefault("build.package", "cross")
	v.SetDefault("build.matrix_file", ".github/workflows/ci.yml")
	v.SetDefault("build.matrix_os_prefix", "ubuntu")
	v.SetDefault("build.reserved_branches", []string{"staging", "trying"})
}

// bindEnvVars explicitly binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("log.level", "XTASK_LOG_LEVEL")
	_ = v.BindEnv("log.format", "XTASK_LOG_FORMAT")

	_ = v.BindEnv("build.repository", "XTASK_BUILD_REPOSITORY")
	_ = v.BindEnv("build.engine", "XTASK_BUILD_ENGINE")
	_ = v.BindEnv("build.progress", "XTASK_BUILD_PROGRESS")
	_ = v.BindEnv("build.docker_dir", "XTASK_BUILD_DOCKER_DIR")
	_ = v.BindEnv("build.manifest", "XTASK_BUILD_MANIFEST")
	_ = v.BindEnv("build.package", "XTASK_BUILD_PACKAGE")
	_ = v.BindEnv("build.matrix_file", "XTASK_BUILD_MATRIX_FILE")
	_ = v.BindEnv("build.matrix_os_prefix", "XTASK_BUILD_MATRIX_OS_PREFIX")
	_ = v.BindEnv("build.reserved_branches", "XTASK_BUILD_RESERVED_BRANCHES")
}
